// Package config holds the configuration model consumed by the binding layer: flat dotted-key views,
// a named composite with first-wins precedence, cascade strategies and a file loader.
package config

import (
	"fmt"
	"maps"
	"slices"
)

// Config is a read-only view of flat, dot-separated keys.
type Config interface {
	Get(key string) (any, bool)
	Keys() []string
}

// GetString returns the value for key formatted as a string.
func GetString(cfg Config, key string) (string, bool) {
	v, ok := cfg.Get(key)
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Lookup resolves a single key to its string form. It is the interpolation surface used by cascade
// strategies.
type Lookup func(key string) (string, bool)

// LookupFrom adapts a Config to a Lookup. A nil Config resolves nothing.
func LookupFrom(cfg Config) Lookup {
	return func(key string) (string, bool) {
		if cfg == nil {
			return "", false
		}
		return GetString(cfg, key)
	}
}

// MapConfig is an immutable Config backed by a map.
type MapConfig struct {
	values map[string]any
}

// NewMapConfig copies values into a new MapConfig.
func NewMapConfig(values map[string]any) *MapConfig {
	return &MapConfig{values: maps.Clone(values)}
}

func (m *MapConfig) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *MapConfig) Keys() []string {
	return slices.Sorted(maps.Keys(m.values))
}

// Len reports the number of keys.
func (m *MapConfig) Len() int {
	return len(m.values)
}
