package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/magiconair/properties"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader loads a named configuration resource into a composite of every variant found.
type Loader interface {
	Load(resource string, opts ...LoadOption) (*CompositeConfig, error)
}

type loadOptions struct {
	strategy CascadeStrategy
}

// LoadOption adjusts a single Load call.
type LoadOption func(*loadOptions)

// WithCascadeStrategy selects the strategy used to expand the resource name. A nil strategy means
// NoCascadeStrategy.
func WithCascadeStrategy(s CascadeStrategy) LoadOption {
	return func(o *loadOptions) {
		o.strategy = s
	}
}

type format func(data []byte) (map[string]any, error)

var formats = map[string]format{
	".properties": parseProperties,
	".yaml":       parseYAML,
	".yml":        parseYAML,
}

// formatOrder fixes the probing order for resource names given without an extension.
var formatOrder = []string{".properties", ".yaml", ".yml"}

// FileLoader reads resources from an fs.FS. Each resource is looked up in every search directory;
// with no directories configured the root of the filesystem is searched.
type FileLoader struct {
	fsys   fs.FS
	dirs   []string
	lookup Lookup
	logger *zap.Logger
}

// FileLoaderOption customises a FileLoader.
type FileLoaderOption func(*FileLoader)

// WithSearchPath sets the directories searched, in precedence order.
func WithSearchPath(dirs ...string) FileLoaderOption {
	return func(l *FileLoader) {
		l.dirs = dirs
	}
}

// WithInterpolation supplies the values cascade templates are interpolated from.
func WithInterpolation(cfg Config) FileLoaderOption {
	return func(l *FileLoader) {
		l.lookup = LookupFrom(cfg)
	}
}

// WithLoaderLogger sets the logger. A nil logger is ignored.
func WithLoaderLogger(logger *zap.Logger) FileLoaderOption {
	return func(l *FileLoader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewFileLoader(fsys fs.FS, opts ...FileLoaderOption) *FileLoader {
	l := &FileLoader{
		fsys:   fsys,
		dirs:   []string{"."},
		lookup: LookupFrom(nil),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load expands resource with the cascade strategy and reads every variant that exists. The most
// specific variant is added first so it takes precedence. Missing variants are not an error; a
// resource with no variants on disk yields an empty composite.
func (l *FileLoader) Load(resource string, opts ...LoadOption) (*CompositeConfig, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	strategy := o.strategy
	if strategy == nil {
		strategy = NoCascadeStrategy{}
	}

	base, ext := resource, path.Ext(resource)
	if _, known := formats[ext]; known {
		base = strings.TrimSuffix(resource, ext)
	} else {
		ext = ""
	}

	variants := strategy.Generate(base, l.lookup)
	composite := NewCompositeConfig()
	for _, variant := range slices.Backward(variants) {
		if err := l.loadVariant(composite, resource, variant, ext); err != nil {
			return nil, err
		}
	}

	l.logger.Debug("configuration resource loaded",
		zap.String("resource", resource),
		zap.Strings("variants", variants),
		zap.Strings("files", composite.Names()))
	return composite, nil
}

func (l *FileLoader) loadVariant(composite *CompositeConfig, resource, variant, ext string) error {
	exts := formatOrder
	if ext != "" {
		exts = []string{ext}
	}

	for _, dir := range l.dirs {
		for _, e := range exts {
			p := path.Join(dir, variant+e)
			data, err := fs.ReadFile(l.fsys, p)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return &LoadError{Resource: resource, Path: p, Err: err}
			}

			values, err := formats[e](data)
			if err != nil {
				return &LoadError{Resource: resource, Path: p, Err: err}
			}
			composite.AddConfig(p, NewMapConfig(values))
		}
	}
	return nil
}

func parseProperties(data []byte) (map[string]any, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	values := make(map[string]any, p.Len())
	for k, v := range p.Map() {
		values[k] = v
	}
	return values, nil
}

func parseYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	values := make(map[string]any)
	flatten("", doc, values)
	return values, nil
}

// flatten writes nested mappings into out using dot-joined keys. Sequences and scalars are leaves.
func flatten(prefix string, node map[string]any, out map[string]any) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch child := v.(type) {
		case map[string]any:
			flatten(key, child, out)
		case map[any]any:
			converted := make(map[string]any, len(child))
			for ck, cv := range child {
				converted[fmt.Sprint(ck)] = cv
			}
			flatten(key, converted, out)
		default:
			out[key] = v
		}
	}
}
