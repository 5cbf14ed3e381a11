package configdi

import "errors"

var (
	ErrBeanIdParamIsEmpty   = errors.New("beanID parameter is empty")
	ErrBeanTypeParamIsNil   = errors.New("beanType parameter is nil")
	ErrBeanParamIsNil       = errors.New("bean parameter is nil")
	ErrBeanTypeNotSupported = errors.New("beanType is not supported")
	ErrRegistrationClosed   = errors.New("container already built; registration is closed")
	ErrBeanNotFound         = errors.New("bean not found")
	ErrBeanTypeMismatch     = errors.New("bean is not assignable to the requested type")
	ErrAmbiguousType        = errors.New("more than one bean is assignable to the requested type")
	ErrTypeListenerIsNil    = errors.New("type listener is nil")
	ErrInjectionListenerNil = errors.New("injection listener is nil")
	ErrEncounterClosed      = errors.New("type encounter is closed")
)
