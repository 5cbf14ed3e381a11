// Package binding connects configuration to the container's object lifecycle.
//
// The Orchestrator decides, once per observed type, whether instances of that type load
// configuration resources into the library layer (ConfigurationSource) and whether their fields are
// populated from the active configuration (Configuration). The decision yields up to two hooks that
// the host runs after each instance is constructed.
package binding

import (
	"reflect"

	"github.com/Station-Manager/configdi"
	"github.com/Station-Manager/configdi/config"
	"github.com/Station-Manager/configdi/mapper"
	"go.uber.org/zap"
)

// Hook runs once per constructed instance.
type Hook func(instance any) error

// ConfigMapper populates an instance from configuration. *mapper.Mapper satisfies it.
type ConfigMapper interface {
	MapConfig(target any, cfg config.Config, lookup mapper.InstanceLookup) error
}

type Orchestrator struct {
	config    config.Config
	loader    config.Loader
	libraries LibraryLayer
	strategy  config.CascadeStrategy
	injector  configdi.Injector
	binder    ConfigMapper
	described map[reflect.Type]Metadata
	logger    *zap.Logger
}

// Option configures an Orchestrator. Collaborators left unset are resolved from the container by
// their well-known bean names when a hook runs.
type Option func(*Orchestrator)

// WithConfig sets the merged configuration view used for field binding.
func WithConfig(cfg config.Config) Option {
	return func(o *Orchestrator) {
		if cfg != nil {
			o.config = cfg
		}
	}
}

func WithLoader(l config.Loader) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.loader = l
		}
	}
}

// WithLibraries sets the layer loaded resources are added to.
func WithLibraries(l LibraryLayer) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.libraries = l
		}
	}
}

// WithCascadeStrategy sets the default strategy for sources that do not name one.
func WithCascadeStrategy(s config.CascadeStrategy) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.strategy = s
		}
	}
}

// WithInjector sets the injector used by OnTypeObserved. Hooks created through Hear use the
// encounter's injector instead.
func WithInjector(in configdi.Injector) Option {
	return func(o *Orchestrator) {
		o.injector = in
	}
}

func WithMapper(m ConfigMapper) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.binder = m
		}
	}
}

// WithMetadata declares markers for a type the caller cannot add methods to.
func WithMetadata(t reflect.Type, md Metadata) Option {
	return func(o *Orchestrator) {
		o.described[t] = md
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		binder:    mapper.New(),
		described: make(map[reflect.Type]Metadata),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Install creates an Orchestrator and registers it as a type listener on c.
func Install(c *configdi.Container, opts ...Option) (*Orchestrator, error) {
	o := New(append([]Option{WithInjector(c)}, opts...)...)
	if err := c.AddTypeListener(o); err != nil {
		return nil, err
	}
	return o, nil
}

// OnTypeObserved returns the hooks instances of t need. Either or both may be nil.
func (o *Orchestrator) OnTypeObserved(t reflect.Type) (load, bind Hook) {
	return o.hooksFor(t, o.injector)
}

// Hear implements configdi.TypeListener. The load hook is registered before the bind hook.
func (o *Orchestrator) Hear(t reflect.Type, encounter configdi.TypeEncounter) error {
	load, bind := o.hooksFor(t, encounter.Injector())
	for _, h := range []Hook{load, bind} {
		if h == nil {
			continue
		}
		if err := encounter.Register(configdi.InjectionListener(h)); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) hooksFor(t reflect.Type, in configdi.Injector) (load, bind Hook) {
	if t == nil {
		return nil, nil
	}
	h := holder{o: o, injector: in}
	if o.wantsSource(t) {
		load = func(instance any) error {
			return o.loadSources(t, instance, h)
		}
	}
	if o.wantsBinding(t) {
		bind = func(instance any) error {
			return o.bindFields(instance, h)
		}
	}
	return load, bind
}

// loadSources loads each resource of the instance's Source in order. The first failure stops the
// loop; resources already added stay in the library layer.
func (o *Orchestrator) loadSources(observed reflect.Type, instance any, h holder) error {
	instanceType := reflect.TypeOf(instance)
	src, ok := o.sourceOf(observed, instance)
	if !ok || len(src.Resources) == 0 {
		o.logger.Debug("no configuration resources declared", zap.Stringer("type", instanceType))
		return nil
	}

	strategy, err := h.strategyFor(src)
	if err != nil {
		return &ProvisionError{Stage: StageStrategy, Type: instanceType, Err: err}
	}

	for _, resource := range src.Resources {
		if err := o.loadResource(resource, strategy, h); err != nil {
			o.logger.Debug("configuration resource failed",
				zap.String("resource", resource), zap.Stringer("type", instanceType), zap.Error(err))
			return &ProvisionError{Stage: StageLoad, Type: instanceType, Resource: resource, Err: err}
		}
	}
	return nil
}

func (o *Orchestrator) loadResource(resource string, strategy config.CascadeStrategy, h holder) error {
	loader, err := h.loader()
	if err != nil {
		return err
	}
	libraries, err := h.libraries()
	if err != nil {
		return err
	}

	o.logger.Debug("loading configuration resource", zap.String("resource", resource))
	loaded, err := loader.Load(resource, config.WithCascadeStrategy(strategy))
	if err != nil {
		return err
	}
	if loaded == nil {
		loaded = config.NewCompositeConfig()
	}
	if !libraries.AddConfig(resource, loaded) {
		o.logger.Debug("configuration resource already in library layer", zap.String("resource", resource))
	}
	return nil
}

func (o *Orchestrator) bindFields(instance any, h holder) error {
	instanceType := reflect.TypeOf(instance)
	cfg, err := h.config()
	if err != nil {
		return &ProvisionError{Stage: StageBind, Type: instanceType, Err: err}
	}
	if err := o.binder.MapConfig(instance, cfg, h); err != nil {
		return &ProvisionError{Stage: StageBind, Type: instanceType, Err: err}
	}
	o.logger.Debug("configuration bound", zap.Stringer("type", instanceType))
	return nil
}
