package configdi

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

type bean struct {
	id              string
	beanType        reflect.Type
	instance        any
	singleton       bool
	hasDependencies bool
	dependencies    []string
}

type Container struct {
	buildLock sync.Mutex
	// Protects access to registeredBeans, requiredDependency and the listener state during registration/build.
	regMu sync.RWMutex
	// Indicates whether the container has been built/finalized.
	built atomic.Bool

	logger   *zap.Logger
	literals LiteralProvider

	// requiredDependency maps bean identifiers to their corresponding reflect.Type, identifying dependencies
	// required by registered beans. For example, if `Service` has a dependency on `Config`, then `Config` will be
	// added to the requiredDependency list.
	requiredDependency map[string]reflect.Type

	// registeredBeans stores all registered beans mapped by their unique string identifiers.
	// This is the source of truth for all beans.
	registeredBeans map[string]bean

	typeListeners []TypeListener
	// heard caches the injection listeners collected for each bean type, so every type is offered to the
	// type listeners exactly once.
	heard   map[reflect.Type][]InjectionListener
	heardMu sync.Mutex
}

// Option customises a Container at construction time.
type Option func(*Container)

// WithLogger sets the logger used for build diagnostics. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTypeListener registers a type listener at construction time.
func WithTypeListener(listener TypeListener) Option {
	return func(c *Container) {
		if listener != nil {
			c.typeListeners = append(c.typeListeners, listener)
		}
	}
}

// WithLiteralProvider installs a literal provider for this container only. It takes precedence over the
// global hook installed with SetLiteralProvider.
func WithLiteralProvider(p LiteralProvider) Option {
	return func(c *Container) {
		c.literals = p
	}
}

func New(opts ...Option) *Container {
	c := &Container{
		logger:             zap.NewNop(),
		requiredDependency: make(map[string]reflect.Type),
		registeredBeans:    make(map[string]bean),
		heard:              make(map[reflect.Type][]InjectionListener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddTypeListener registers a listener that is offered every bean type during Build.
// Listeners must be added before the container is built.
func (c *Container) AddTypeListener(listener TypeListener) error {
	if listener == nil {
		return ErrTypeListenerIsNil
	}
	if c.built.Load() {
		return ErrRegistrationClosed
	}
	c.regMu.Lock()
	c.typeListeners = append(c.typeListeners, listener)
	c.regMu.Unlock()
	return nil
}

// Register registers a bean by its reflect.Type.
// If the type is a struct, it will be normalized to a pointer-to-struct for consistent injection semantics.
// Bean identifiers are case-insensitive: they are lower-cased here and when read from `di.inject` tags.
//
// This method only supports registering structs and pointers to structs; simple types (e.g., string)
// must be registered as instances using RegisterInstance.
func (c *Container) Register(beanID string, beanType reflect.Type) error {
	if beanID == emptyString {
		return ErrBeanIdParamIsEmpty
	}
	if beanType == nil {
		return ErrBeanTypeParamIsNil
	}
	if c.built.Load() {
		return ErrRegistrationClosed
	}

	beanID = strings.ToLower(beanID)

	switch beanType.Kind() {
	case reflect.Ptr:
		if beanType.Elem().Kind() != reflect.Struct {
			return ErrBeanTypeNotSupported
		}
	case reflect.Struct:
		beanType = reflect.PointerTo(beanType)
	default:
		return ErrBeanTypeNotSupported
	}

	c.regMu.Lock()
	defer c.regMu.Unlock()
	hasDeps, deps := c.checkForDependency(beanType)
	c.registeredBeans[beanID] = bean{
		id:              beanID,
		beanType:        beanType,
		hasDependencies: hasDeps,
		dependencies:    deps,
	}
	return nil
}

// RegisterInstance registers a concrete instance under beanID.
// The instance is treated as a singleton. Struct instances are normalized to pointers.
func (c *Container) RegisterInstance(beanID string, instance any) error {
	if beanID == emptyString {
		return ErrBeanIdParamIsEmpty
	}
	if instance == nil {
		return ErrBeanParamIsNil
	}
	if c.built.Load() {
		return ErrRegistrationClosed
	}

	beanID = strings.ToLower(beanID)

	beanType := reflect.TypeOf(instance)

	// A registered struct value becomes a pointer so pointer-typed fields can receive it.
	if beanType.Kind() == reflect.Struct {
		ptr := reflect.New(beanType)
		ptr.Elem().Set(reflect.ValueOf(instance))
		instance = ptr.Interface()
		beanType = ptr.Type()
	}

	c.regMu.Lock()
	defer c.regMu.Unlock()
	has, deps := c.checkForDependency(beanType)
	c.registeredBeans[beanID] = bean{
		id:              beanID,
		beanType:        beanType,
		instance:        instance,
		singleton:       true,
		hasDependencies: has,
		dependencies:    deps,
	}
	return nil
}

// Build finalizes the container. It verifies that all required dependencies are registered,
// instantiates the registered types, injects dependencies and then, in dependency order, runs the
// injection listeners and the Initializer of every bean.
//
// If the container has already been built, this method is a no-op.
func (c *Container) Build() (err error) {
	c.buildLock.Lock()
	defer c.buildLock.Unlock()

	if c.built.Load() {
		return nil
	}

	c.regMu.Lock()
	defer func() {
		// Mark as built only on successful completion.
		if err == nil {
			c.built.Store(true)
		}
		c.regMu.Unlock()
	}()

	if err = c.verifyRequired(); err != nil {
		return err
	}
	if err = c.instantiate(); err != nil {
		return err
	}
	if err = c.injectDependencies(); err != nil {
		return err
	}

	order, err := c.dependencyOrder()
	if err != nil {
		return err
	}
	return c.postConstruct(order)
}

// verifyRequired checks that every required dependency is registered with a compatible type.
func (c *Container) verifyRequired() error {
	lp := c.literalProvider()
	for _, beanID := range slices.Sorted(maps.Keys(c.requiredDependency)) {
		requiredType := c.requiredDependency[beanID]
		regBean, ok := c.registeredBeans[beanID]
		if !ok {
			// Missing strings may still be supplied by a literal provider at injection time.
			if requiredType.Kind() == reflect.String && lp != nil {
				continue
			}
			return fmt.Errorf("bean `%s` is required but not registered", beanID)
		}

		registeredType := regBean.beanType
		var compatible bool
		switch requiredType.Kind() {
		case reflect.Struct:
			compatible = registeredType.Kind() == reflect.Ptr && registeredType.Elem() == requiredType
		case reflect.Interface:
			compatible = registeredType.Implements(requiredType)
		default:
			compatible = registeredType == requiredType
		}

		if !compatible {
			return fmt.Errorf("bean '%s' type mismatch: required %v, registered %v", beanID, requiredType, registeredType)
		}
	}
	return nil
}

func (c *Container) instantiate() error {
	for id, bn := range c.registeredBeans {
		if bn.instance != nil {
			continue
		}
		instance, err := createInstance(bn.beanType)
		if err != nil {
			return fmt.Errorf("bean '%s': %w", id, err)
		}
		bn.instance = instance
		bn.singleton = true
		c.registeredBeans[id] = bn
	}
	return nil
}

// postConstruct offers each bean type to the type listeners, then runs the collected injection
// listeners followed by the bean's Initializer. A bean's dependencies are fully processed before it.
func (c *Container) postConstruct(order []string) error {
	for _, id := range order {
		bn := c.registeredBeans[id]
		if bn.instance == nil {
			continue
		}

		listeners, err := c.hear(reflect.TypeOf(bn.instance))
		if err != nil {
			return fmt.Errorf("type listener for bean '%s' failed: %w", id, err)
		}
		for _, l := range listeners {
			if lerr := l(bn.instance); lerr != nil {
				return fmt.Errorf("injection listener for bean '%s' failed: %w", id, lerr)
			}
		}
		if len(listeners) > 0 {
			c.logger.Debug("injection listeners completed", zap.String("bean", id), zap.Int("listeners", len(listeners)))
		}

		if initr, ok := bn.instance.(Initializer); ok {
			if ierr := initr.Initialize(); ierr != nil {
				return fmt.Errorf("initializer for bean '%s' failed: %w", id, ierr)
			}
		}
	}
	return nil
}

// hear returns the injection listeners for beanType, consulting the type listeners on first sight.
// Only pointer-to-struct types are offered to listeners.
// Unregistered types resolved after Build reach here under the read lock, hence heardMu.
func (c *Container) hear(beanType reflect.Type) ([]InjectionListener, error) {
	c.heardMu.Lock()
	listeners, ok := c.heard[beanType]
	c.heardMu.Unlock()
	if ok {
		return listeners, nil
	}
	if len(c.typeListeners) == 0 || beanType.Kind() != reflect.Ptr || beanType.Elem().Kind() != reflect.Struct {
		c.rememberHeard(beanType, nil)
		return nil, nil
	}

	enc := &typeEncounter{injector: buildInjector{c: c}}
	for _, tl := range c.typeListeners {
		if err := tl.Hear(beanType, enc); err != nil {
			return nil, err
		}
	}
	enc.closed = true

	c.rememberHeard(beanType, enc.listeners)
	if len(enc.listeners) > 0 {
		c.logger.Debug("type encountered", zap.Stringer("type", beanType), zap.Int("listeners", len(enc.listeners)))
	}
	return enc.listeners, nil
}

func (c *Container) rememberHeard(beanType reflect.Type, listeners []InjectionListener) {
	c.heardMu.Lock()
	c.heard[beanType] = listeners
	c.heardMu.Unlock()
}

// Resolve returns a bean instance by its ID or panics if it cannot be resolved.
// Prefer ResolveSafe in production code to handle errors gracefully.
func (c *Container) Resolve(beanID string) any {
	v, err := c.ResolveSafe(beanID)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveSafe returns a bean instance by its ID.
// It ensures the container is built before resolving and returns an error on failure.
func (c *Container) ResolveSafe(beanID string) (any, error) {
	return c.ResolveNamed(beanID, nil)
}

// ResolveNamed returns the bean registered under name, checking that it is assignable to beanType
// when beanType is non-nil. The container is built first if necessary.
func (c *Container) ResolveNamed(name string, beanType reflect.Type) (any, error) {
	if err := c.ensureBuilt(); err != nil {
		return nil, err
	}
	c.regMu.RLock()
	defer c.regMu.RUnlock()
	return c.resolveNamedLocked(name, beanType)
}

// ResolveType returns the single bean assignable to beanType. The container is built first if necessary.
func (c *Container) ResolveType(beanType reflect.Type) (any, error) {
	if err := c.ensureBuilt(); err != nil {
		return nil, err
	}
	c.regMu.RLock()
	defer c.regMu.RUnlock()
	return c.resolveTypeLocked(beanType)
}

func (c *Container) ensureBuilt() error {
	if c.built.Load() {
		return nil
	}
	return c.Build()
}

func (c *Container) resolveNamedLocked(name string, beanType reflect.Type) (any, error) {
	if name == emptyString {
		return nil, ErrBeanIdParamIsEmpty
	}
	name = strings.ToLower(name)

	bn, ok := c.registeredBeans[name]
	if !ok {
		return nil, fmt.Errorf("bean '%s': %w", name, ErrBeanNotFound)
	}
	if bn.instance == nil {
		return nil, fmt.Errorf("bean '%s' is not initialized", name)
	}
	if beanType != nil && !reflect.TypeOf(bn.instance).AssignableTo(beanType) {
		return nil, fmt.Errorf("bean '%s' (%T) as %v: %w", name, bn.instance, beanType, ErrBeanTypeMismatch)
	}
	return bn.instance, nil
}

func (c *Container) resolveTypeLocked(beanType reflect.Type) (any, error) {
	if beanType == nil {
		return nil, ErrBeanTypeParamIsNil
	}
	if beanType.Kind() == reflect.Struct {
		beanType = reflect.PointerTo(beanType)
	}

	var matches []string
	for _, id := range slices.Sorted(maps.Keys(c.registeredBeans)) {
		bn := c.registeredBeans[id]
		if bn.instance != nil && reflect.TypeOf(bn.instance).AssignableTo(beanType) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 1:
		return c.registeredBeans[matches[0]].instance, nil
	case 0:
		if beanType.Kind() == reflect.Ptr && beanType.Elem().Kind() == reflect.Struct {
			return c.createUnregistered(beanType)
		}
		return nil, fmt.Errorf("type %v: %w", beanType, ErrBeanNotFound)
	default:
		return nil, fmt.Errorf("type %v matches %s: %w", beanType, strings.Join(matches, ", "), ErrAmbiguousType)
	}
}

// ResolveAs returns a bean instance by its ID and casts it to type T.
// It ensures the container is built before resolving and returns an error on failure.
func ResolveAs[T any](c *Container, beanID string) (T, error) {
	var zero T
	v, err := c.ResolveSafe(beanID)
	if err != nil {
		return zero, err
	}
	x, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("bean '%s' is not of requested type", beanID)
	}
	return x, nil
}

// ResolveTypeAs resolves the single bean assignable to T.
func ResolveTypeAs[T any](c *Container) (T, error) {
	var zero T
	v, err := c.ResolveType(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	x, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("type %T: %w", v, ErrBeanTypeMismatch)
	}
	return x, nil
}
