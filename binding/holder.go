package binding

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/Station-Manager/configdi"
	"github.com/Station-Manager/configdi/config"
)

// Well-known bean names used to resolve collaborators that were not supplied as options.
const (
	BeanConfig          = "config"
	BeanLoader          = "configloader"
	BeanLibraries       = "librarieslayer"
	BeanCascadeStrategy = "cascadestrategy"
)

// LibraryLayer accumulates configuration contributed by libraries. *config.CompositeConfig satisfies it.
type LibraryLayer interface {
	AddConfig(name string, child config.Config) bool
}

// holder resolves the per-instance collaborators. Anything the orchestrator was constructed with wins;
// the rest comes from the injector on demand.
type holder struct {
	o        *Orchestrator
	injector configdi.Injector
}

func (h holder) config() (config.Config, error) {
	return collaborator(h.injector, h.o.config, BeanConfig)
}

func (h holder) loader() (config.Loader, error) {
	return collaborator(h.injector, h.o.loader, BeanLoader)
}

func (h holder) libraries() (LibraryLayer, error) {
	return collaborator(h.injector, h.o.libraries, BeanLibraries)
}

// cascadeStrategy returns the default strategy: the configured or registered one, else no cascade.
func (h holder) cascadeStrategy() (config.CascadeStrategy, error) {
	s, err := collaborator(h.injector, h.o.strategy, BeanCascadeStrategy)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, configdi.ErrBeanNotFound), errors.Is(err, ErrNoInjector):
		return config.NoCascadeStrategy{}, nil
	default:
		return nil, err
	}
}

// strategyFor picks the strategy named by src, falling back to the default.
func (h holder) strategyFor(src Source) (config.CascadeStrategy, error) {
	if !src.hasCascading() {
		return h.cascadeStrategy()
	}
	if h.injector == nil {
		return nil, fmt.Errorf("%v: %w", src.Cascading, ErrNoInjector)
	}
	v, err := h.injector.ResolveType(src.Cascading)
	if err != nil {
		return nil, err
	}
	s, ok := v.(config.CascadeStrategy)
	if !ok {
		return nil, fmt.Errorf("%T: %w", v, ErrNotCascadeStrategy)
	}
	return s, nil
}

// GetInstance lets the mapper resolve named beans through the container.
func (h holder) GetInstance(name string, t reflect.Type) (any, error) {
	if h.injector == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoInjector)
	}
	return h.injector.ResolveNamed(name, t)
}

func collaborator[T any](in configdi.Injector, explicit T, name string) (T, error) {
	if any(explicit) != nil {
		return explicit, nil
	}
	var zero T
	if in == nil {
		return zero, fmt.Errorf("%s: %w", name, ErrNoInjector)
	}
	v, err := in.ResolveNamed(name, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
