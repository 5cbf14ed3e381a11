package config

import (
	"maps"
	"slices"
	"sync"
)

type namedConfig struct {
	name string
	cfg  Config
}

// CompositeConfig combines named child configurations. Lookups consult children in insertion order and
// the first child holding a key wins. Children are never replaced or removed, which makes the composite
// safe to share as an accumulating layer across concurrent writers.
type CompositeConfig struct {
	mu       sync.RWMutex
	children []namedConfig
}

func NewCompositeConfig() *CompositeConfig {
	return &CompositeConfig{}
}

// AddConfig appends child under name. It reports false, leaving the composite unchanged, when name is
// already present.
func (c *CompositeConfig) AddConfig(name string, child Config) bool {
	if child == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, nc := range c.children {
		if nc.name == name {
			return false
		}
	}
	c.children = append(c.children, namedConfig{name: name, cfg: child})
	return true
}

// Child returns the child added under name.
func (c *CompositeConfig) Child(name string) (Config, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, nc := range c.children {
		if nc.name == name {
			return nc.cfg, true
		}
	}
	return nil, false
}

// Names returns child names in insertion order.
func (c *CompositeConfig) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.children))
	for i, nc := range c.children {
		names[i] = nc.name
	}
	return names
}

func (c *CompositeConfig) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, nc := range c.children {
		if v, ok := nc.cfg.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Keys returns the union of all child keys, sorted.
func (c *CompositeConfig) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set := make(map[string]struct{})
	for _, nc := range c.children {
		for _, k := range nc.cfg.Keys() {
			set[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// Flatten resolves every key against the composite's precedence.
func (c *CompositeConfig) Flatten() map[string]any {
	out := make(map[string]any)
	for _, k := range c.Keys() {
		v, _ := c.Get(k)
		out[k] = v
	}
	return out
}
