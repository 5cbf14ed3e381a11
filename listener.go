package configdi

import (
	"reflect"
)

// Injector is the lookup surface handed to type listeners. It is also implemented by *Container,
// so code that only needs lookups can accept either.
type Injector interface {
	// ResolveNamed returns the bean registered under name, which must be assignable to beanType.
	// A nil beanType skips the assignability check.
	ResolveNamed(name string, beanType reflect.Type) (any, error)
	// ResolveType returns the single bean assignable to beanType. Pointer-to-struct types with no
	// registration are constructed on demand.
	ResolveType(beanType reflect.Type) (any, error)
}

// InjectionListener runs once per constructed bean instance, after its dependencies are injected
// and before its Initializer.
type InjectionListener func(instance any) error

// TypeEncounter is offered to a TypeListener for the duration of a single Hear call.
type TypeEncounter interface {
	// Register adds a post-construction callback for every instance of the heard type.
	Register(listener InjectionListener) error
	// Injector resolves beans without re-entering the container's build lock.
	Injector() Injector
}

// TypeListener is notified once per distinct bean type the container builds.
type TypeListener interface {
	Hear(beanType reflect.Type, encounter TypeEncounter) error
}

// TypeListenerFunc adapts a function to TypeListener.
type TypeListenerFunc func(beanType reflect.Type, encounter TypeEncounter) error

func (f TypeListenerFunc) Hear(beanType reflect.Type, encounter TypeEncounter) error {
	return f(beanType, encounter)
}

type typeEncounter struct {
	injector  Injector
	listeners []InjectionListener
	closed    bool
}

func (e *typeEncounter) Register(listener InjectionListener) error {
	if listener == nil {
		return ErrInjectionListenerNil
	}
	if e.closed {
		return ErrEncounterClosed
	}
	e.listeners = append(e.listeners, listener)
	return nil
}

func (e *typeEncounter) Injector() Injector {
	return e.injector
}

// buildInjector serves lookups while Build holds regMu.
type buildInjector struct {
	c *Container
}

func (b buildInjector) ResolveNamed(name string, beanType reflect.Type) (any, error) {
	return b.c.resolveNamedLocked(name, beanType)
}

func (b buildInjector) ResolveType(beanType reflect.Type) (any, error) {
	return b.c.resolveTypeLocked(beanType)
}
