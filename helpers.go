package configdi

import (
	"fmt"
	"reflect"
	"strings"
)

func createInstance(beanType reflect.Type) (any, error) {
	if beanType.Kind() == reflect.Ptr {
		return reflect.New(beanType.Elem()).Interface(), nil
	}
	// Direct struct kinds become a pointer so all created instances are pointers.
	if beanType.Kind() == reflect.Struct {
		return reflect.New(beanType).Interface(), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrBeanTypeNotSupported, beanType.Kind())
}

// createUnregistered constructs a zero instance of a type that has no registration. Such instances
// are never cached and receive no field injection. The type listeners and the Initializer still run,
// in the same order as for registered beans.
func (c *Container) createUnregistered(beanType reflect.Type) (any, error) {
	instance, err := createInstance(beanType)
	if err != nil {
		return nil, err
	}
	listeners, err := c.hear(reflect.TypeOf(instance))
	if err != nil {
		return nil, fmt.Errorf("type listener for unregistered %v failed: %w", beanType, err)
	}
	for _, l := range listeners {
		if lerr := l(instance); lerr != nil {
			return nil, fmt.Errorf("injection listener for unregistered %v failed: %w", beanType, lerr)
		}
	}
	if initr, ok := instance.(Initializer); ok {
		if ierr := initr.Initialize(); ierr != nil {
			return nil, fmt.Errorf("initializer for unregistered %v failed: %w", beanType, ierr)
		}
	}
	return instance, nil
}

func injectIntoStruct(receiverBean bean, depBean bean, chain []string) error {
	// Local guard for direct/self cycles; injectDependencies catches the indirect ones.
	for _, id := range chain {
		if id == depBean.id {
			return fmt.Errorf("dependency cycle detected: %s -> %s", strings.Join(chain, pathSep), depBean.id)
		}
	}

	rv := reflect.ValueOf(receiverBean.instance)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("injectIntoStruct: receiver bean '%s' is not a struct", receiverBean.id)
	}

	depVal := reflect.ValueOf(depBean.instance)
	depType := depBean.beanType

	for i := 0; i < rv.NumField(); i++ {
		sf := rv.Type().Field(i)
		tagVal := strings.ToLower(sf.Tag.Get(InjectTag))
		if tagVal == emptyString || tagVal != depBean.id {
			continue
		}

		fv := rv.Field(i)
		if !fv.CanSet() {
			continue
		}
		assign(fv, depVal, depType)
	}

	return nil
}

// assign stores dep into field, normalising pointer/value combinations. Incompatible types leave the
// field untouched.
func assign(field reflect.Value, dep reflect.Value, depType reflect.Type) {
	fieldType := field.Type()

	switch {
	case fieldType == depType:
		// Zero-sized structs share one address; allocate so distinct ids get distinct pointers.
		if depType.Kind() == reflect.Ptr && depType.Elem().Kind() == reflect.Struct && depType.Elem().NumField() == 0 {
			field.Set(reflect.New(depType.Elem()))
			return
		}
		field.Set(dep)
	case fieldType.Kind() == reflect.Interface:
		// dep.Type() may be more specific than the registered type.
		if dep.Type().Implements(fieldType) {
			field.Set(dep)
		}
	case fieldType.Kind() == reflect.Ptr && depType.Kind() == reflect.Struct && fieldType.Elem() == depType:
		ptr := reflect.New(depType)
		ptr.Elem().Set(dep)
		field.Set(ptr)
	case fieldType.Kind() == reflect.Struct && depType.Kind() == reflect.Ptr && depType.Elem() == fieldType:
		field.Set(dep.Elem())
	case fieldType.Kind() == reflect.Ptr && depType.Kind() == reflect.Ptr && fieldType.Elem() == depType.Elem():
		field.Set(dep)
	}
}
