package binding

import (
	"reflect"

	"github.com/Station-Manager/configdi/config"
)

// NullCascadeStrategy marks a Source that does not name its own cascade strategy. It is never
// resolved; the orchestrator falls back to the configured strategy instead.
type NullCascadeStrategy struct{}

func (NullCascadeStrategy) Generate(resource string, _ config.Lookup) []string {
	return []string{resource}
}

// Source names the configuration resources a type contributes to the library layer.
type Source struct {
	// Resources are loaded in order.
	Resources []string
	// Cascading is the strategy type to resolve from the container. nil, NullCascadeStrategy and
	// *NullCascadeStrategy all mean "use the default".
	Cascading reflect.Type
}

func (s Source) hasCascading() bool {
	switch {
	case s.Cascading == nil, s.Cascading == nullCascadeType:
		return false
	case s.Cascading.Kind() == reflect.Pointer && s.Cascading.Elem() == nullCascadeType:
		return false
	}
	return true
}

// ConfigurationSource is implemented by types that load configuration resources when constructed.
// It is called on each constructed instance, so the instance's own method set decides.
type ConfigurationSource interface {
	ConfigurationSource() Source
}

// Configuration is implemented by types whose fields are populated from configuration after
// construction.
type Configuration interface {
	Configuration()
}

// Metadata declares markers for a type without touching its method set.
type Metadata struct {
	Source *Source
	Bind   bool
}

var (
	sourceType      = reflect.TypeFor[ConfigurationSource]()
	bindingType     = reflect.TypeFor[Configuration]()
	nullCascadeType = reflect.TypeFor[NullCascadeStrategy]()
)

func (o *Orchestrator) wantsSource(t reflect.Type) bool {
	if t.Implements(sourceType) {
		return true
	}
	md, ok := o.described[t]
	return ok && md.Source != nil
}

func (o *Orchestrator) wantsBinding(t reflect.Type) bool {
	if t.Implements(bindingType) {
		return true
	}
	md, ok := o.described[t]
	return ok && md.Bind
}

// sourceOf reads the Source from the instance's runtime type first, then from declared metadata for
// the runtime type, then for the observed type.
func (o *Orchestrator) sourceOf(observed reflect.Type, instance any) (Source, bool) {
	if s, ok := instance.(ConfigurationSource); ok {
		return s.ConfigurationSource(), true
	}
	for _, t := range []reflect.Type{reflect.TypeOf(instance), observed} {
		if md, ok := o.described[t]; ok && md.Source != nil {
			return *md.Source, true
		}
	}
	return Source{}, false
}
