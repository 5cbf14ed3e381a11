package configdi

// Initializer is an optional interface that a bean may implement to perform
// additional initialization once it is fully assembled.
//
// The container calls Initialize() during Build(), after dependency injection and
// after any injection listeners registered for the bean's type have run, so
// configuration bound by a listener is visible here. If Initialize returns an
// error, Build() fails with that error.
//
// The interface has no imports and references no container types, so beans in
// other modules can implement it without cyclic dependencies.
type Initializer interface {
	Initialize() error
}
