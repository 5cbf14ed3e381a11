package binding

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrProvision          = errors.New("provisioning failed")
	ErrNoInjector         = errors.New("no injector to resolve collaborator")
	ErrNotCascadeStrategy = errors.New("resolved instance is not a cascade strategy")
)

// Stage identifies which post-construction step failed.
type Stage string

const (
	StageLoad     Stage = "load"
	StageStrategy Stage = "strategy"
	StageBind     Stage = "bind"
)

// ProvisionError is returned by the orchestrator's hooks. It names the failing instance's type and,
// for load failures, the resource.
type ProvisionError struct {
	Stage    Stage
	Type     reflect.Type
	Resource string
	Err      error
}

func (e *ProvisionError) Error() string {
	switch e.Stage {
	case StageLoad:
		return fmt.Sprintf("unable to load configuration for %s at source %v: %v", e.Resource, e.Type, e.Err)
	case StageStrategy:
		return fmt.Sprintf("unable to resolve cascade strategy at source %v: %v", e.Type, e.Err)
	default:
		return fmt.Sprintf("unable to bind configuration to %v: %v", e.Type, e.Err)
	}
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

func (e *ProvisionError) Is(target error) bool {
	return target == ErrProvision
}
