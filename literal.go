package configdi

import (
	"reflect"
	"sync/atomic"
)

// LiteralProvider supplies values for string dependencies that have no registered bean.
//
// id is the lower-cased `di.inject` tag value and targetType the field's type, which may be a named
// string type. found reports whether the provider knows the id; err aborts the build.
type LiteralProvider func(id string, targetType reflect.Type) (value any, found bool, err error)

var globalLiterals atomic.Value // LiteralProvider

func init() {
	globalLiterals.Store(LiteralProvider(nil))
}

// SetLiteralProvider installs the process-wide literal provider. Containers built with
// WithLiteralProvider ignore it.
func SetLiteralProvider(p LiteralProvider) {
	globalLiterals.Store(p)
}

// literalProvider returns the container's provider, falling back to the global one. Either may be nil.
func (c *Container) literalProvider() LiteralProvider {
	if c.literals != nil {
		return c.literals
	}
	p, _ := globalLiterals.Load().(LiteralProvider)
	return p
}
