package configdi

const (
	emptyString = ""
	pathSep     = " -> "
)

// Struct tags understood by the container and the configuration mapper. Tagged fields must be exported.
const (
	// InjectTag names the bean injected into a field. Bean ids are case-insensitive.
	InjectTag = "di.inject"
	// ConfigTag names the configuration key bound into a field, optionally followed by ",required".
	ConfigTag = "di.config"
)
