package config

import (
	"strings"
)

// CascadeStrategy expands a resource name into the ordered list of variants a loader should try.
// Earlier variants are more general; later ones override them.
type CascadeStrategy interface {
	Generate(resource string, lookup Lookup) []string
}

// NoCascadeStrategy loads the resource name as given.
type NoCascadeStrategy struct{}

func (NoCascadeStrategy) Generate(resource string, _ Lookup) []string {
	return []string{resource}
}

// ConcatCascadeStrategy appends "-<suffix>" variants after the base resource name. Each template may
// reference keys as ${key}; templates with an unresolvable key are skipped.
//
//	ConcatCascadeStrategy{Templates: []string{"${env}", "${env}-${region}"}}
//	"app" with env=prod, region=eu -> app, app-prod, app-prod-eu
type ConcatCascadeStrategy struct {
	Templates []string
}

func NewConcatCascadeStrategy(templates ...string) *ConcatCascadeStrategy {
	return &ConcatCascadeStrategy{Templates: templates}
}

func (s *ConcatCascadeStrategy) Generate(resource string, lookup Lookup) []string {
	variants := []string{resource}
	for _, tmpl := range s.Templates {
		suffix, ok := Interpolate(tmpl, lookup)
		if !ok || suffix == "" {
			continue
		}
		variants = append(variants, resource+"-"+suffix)
	}
	return variants
}

// Interpolate replaces ${key} references in s. It reports false when any key cannot be resolved or a
// reference is unterminated.
func Interpolate(s string, lookup Lookup) (string, bool) {
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String(), true
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			return "", false
		}
		key := s[start+2 : start+end]
		if lookup == nil {
			return "", false
		}
		val, ok := lookup(key)
		if !ok {
			return "", false
		}
		b.WriteString(s[:start])
		b.WriteString(val)
		s = s[start+end+1:]
	}
}
