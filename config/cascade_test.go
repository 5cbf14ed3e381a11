package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNoCascadeStrategy(t *testing.T) {
	assert.Equal(t, []string{"app"}, NoCascadeStrategy{}.Generate("app", nil))
}

func TestConcatCascadeStrategy(t *testing.T) {
	lookup := LookupFrom(NewMapConfig(map[string]any{"env": "prod", "region": "eu"}))

	tests := []struct {
		name      string
		templates []string
		want      []string
	}{
		{name: "no templates", want: []string{"app"}},
		{name: "single", templates: []string{"${env}"}, want: []string{"app", "app-prod"}},
		{
			name:      "layered",
			templates: []string{"${env}", "${env}-${region}"},
			want:      []string{"app", "app-prod", "app-prod-eu"},
		},
		{name: "unresolved skipped", templates: []string{"${stack}", "${env}"}, want: []string{"app", "app-prod"}},
		{name: "literal suffix", templates: []string{"local"}, want: []string{"app", "app-local"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewConcatCascadeStrategy(tt.templates...).Generate("app", lookup)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Generate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInterpolate(t *testing.T) {
	lookup := LookupFrom(NewMapConfig(map[string]any{"a": "x", "n": 3}))

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "plain", want: "plain", ok: true},
		{in: "${a}", want: "x", ok: true},
		{in: "pre-${a}-${n}-post", want: "pre-x-3-post", ok: true},
		{in: "${missing}", ok: false},
		{in: "${a", ok: false},
	}

	for _, tt := range tests {
		got, ok := Interpolate(tt.in, lookup)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}

	_, ok := Interpolate("${a}", nil)
	assert.False(t, ok)
}
