// Package mapper populates tagged struct fields from a flat configuration view.
//
// Fields opt in with the `di.config` tag:
//
//	type Server struct {
//		Port    int           `di.config:"server.port,required"`
//		Timeout time.Duration `di.config:"server.timeout"`
//		Store   Store         `di.config:"server.store"` // value names a bean
//	}
//
// Scalar, slice, duration and RFC 3339 time fields are decoded with weak typing, so "8080" fills an
// int. Pointer and interface fields treat the configured value as a bean name and resolve it through
// an InstanceLookup.
// Struct-valued fields recurse with their key as prefix. A target implementing Prefixed has its prefix
// prepended to every key.
package mapper

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/Station-Manager/configdi"
	"github.com/Station-Manager/configdi/config"
	"github.com/go-viper/mapstructure/v2"
)

var (
	ErrMapping         = errors.New("unable to map configuration")
	ErrNotPointer      = errors.New("target must be a non-nil pointer to a struct")
	ErrRequired        = errors.New("required configuration key is missing")
	ErrNoLookup        = errors.New("no instance lookup for named field")
	ErrNotBeanName     = errors.New("named field value is not a string")
	errUnsupportedKind = errors.New("unsupported field kind")
)

// InstanceLookup resolves a named instance assignable to t.
type InstanceLookup interface {
	GetInstance(name string, t reflect.Type) (any, error)
}

// LookupFunc adapts a function to InstanceLookup.
type LookupFunc func(name string, t reflect.Type) (any, error)

func (f LookupFunc) GetInstance(name string, t reflect.Type) (any, error) {
	return f(name, t)
}

// Prefixed is implemented by targets whose keys share a prefix.
type Prefixed interface {
	ConfigPrefix() string
}

var timeType = reflect.TypeFor[time.Time]()

type Mapper struct{}

func New() *Mapper {
	return &Mapper{}
}

// MapConfig assigns values from cfg to the tagged fields of target.
func (m *Mapper) MapConfig(target any, cfg config.Config, lookup InstanceLookup) error {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T: %w", ErrMapping, target, ErrNotPointer)
	}

	var prefix string
	if p, ok := target.(Prefixed); ok {
		prefix = p.ConfigPrefix()
	}
	return m.mapStruct(rv.Elem(), prefix, cfg, lookup)
}

func (m *Mapper) mapStruct(sv reflect.Value, prefix string, cfg config.Config, lookup InstanceLookup) error {
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		raw, ok := sf.Tag.Lookup(configdi.ConfigTag)
		if !ok || !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(raw, ",")
		key := join(prefix, name)
		fv := sv.Field(i)

		if err := m.mapField(fv, key, opts == "required", cfg, lookup); err != nil {
			if errors.Is(err, ErrMapping) {
				return err
			}
			return fmt.Errorf("%w: %s.%s (key %q): %w", ErrMapping, st.Name(), sf.Name, key, err)
		}
	}
	return nil
}

func (m *Mapper) mapField(fv reflect.Value, key string, required bool, cfg config.Config, lookup InstanceLookup) error {
	ft := fv.Type()

	if ft.Kind() == reflect.Struct && ft != timeType {
		if required && !hasKeyUnder(cfg, key) {
			return ErrRequired
		}
		return m.mapStruct(fv, key, cfg, lookup)
	}

	value, ok := cfg.Get(key)
	if !ok {
		if required {
			return ErrRequired
		}
		return nil
	}

	switch ft.Kind() {
	case reflect.Ptr, reflect.Interface:
		return resolveNamed(fv, value, lookup)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("%w: %v", errUnsupportedKind, ft.Kind())
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           fv.Addr().Interface(),
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(value)
}

func resolveNamed(fv reflect.Value, value any, lookup InstanceLookup) error {
	name, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotBeanName, value)
	}
	if lookup == nil {
		return ErrNoLookup
	}
	instance, err := lookup.GetInstance(name, fv.Type())
	if err != nil {
		return err
	}
	iv := reflect.ValueOf(instance)
	if !iv.IsValid() || !iv.Type().AssignableTo(fv.Type()) {
		return fmt.Errorf("instance %q of type %T is not assignable to %v", name, instance, fv.Type())
	}
	fv.Set(iv)
	return nil
}

// hasKeyUnder reports whether cfg holds any key nested below prefix.
func hasKeyUnder(cfg config.Config, prefix string) bool {
	return slices.ContainsFunc(cfg.Keys(), func(k string) bool {
		return strings.HasPrefix(k, prefix+".")
	})
}

func join(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return strings.TrimSuffix(prefix, ".")
	case strings.HasSuffix(prefix, "."):
		return prefix + key
	default:
		return prefix + "." + key
	}
}
