package config

import (
	"errors"
	"fmt"
)

var ErrLoad = errors.New("unable to load configuration")

// LoadError reports a resource that exists but could not be read or parsed.
type LoadError struct {
	Resource string
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: resource %q (%s): %v", ErrLoad, e.Resource, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}
