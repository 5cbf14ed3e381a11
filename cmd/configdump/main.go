// Command configdump loads configuration resources the way a ConfigurationSource bean would and
// prints the resulting library layer.
//
//	configdump --dir conf --cascade '${env}' --set env=prod app.properties db
package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Station-Manager/configdi"
	"github.com/Station-Manager/configdi/binding"
	"github.com/Station-Manager/configdi/config"
)

type options struct {
	root    string
	dirs    []string
	cascade []string
	set     map[string]string
	format  string
	verbose bool
}

// dumpSource is the bean whose construction triggers the load.
type dumpSource struct {
	resources []string
}

func (d *dumpSource) ConfigurationSource() binding.Source {
	return binding.Source{Resources: d.resources}
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "configdump: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "configdump [flags] RESOURCE...",
		Short:         "Load configuration resources and print the merged library layer",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(out, o, args)
		},
	}
	bindFlags(cmd.Flags(), o)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, o *options) {
	fs.StringVar(&o.root, "root", ".", "filesystem root the search directories are relative to")
	fs.StringSliceVar(&o.dirs, "dir", []string{"."}, "search directory, in precedence order (repeatable)")
	fs.StringSliceVar(&o.cascade, "cascade", nil, "cascade suffix template such as ${env} (repeatable)")
	fs.StringToStringVar(&o.set, "set", nil, "interpolation value as key=value (repeatable)")
	fs.StringVar(&o.format, "format", "properties", "output format: properties or yaml")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log loader activity to stderr")
}

func run(out io.Writer, o *options, resources []string) error {
	if o.format != "properties" && o.format != "yaml" {
		return fmt.Errorf("unknown format %q", o.format)
	}

	logger := zap.NewNop()
	if o.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = l
		defer func() { _ = logger.Sync() }()
	}

	values := make(map[string]any, len(o.set))
	for k, v := range o.set {
		values[k] = v
	}

	libraries := config.NewCompositeConfig()
	loader := config.NewFileLoader(os.DirFS(o.root),
		config.WithSearchPath(o.dirs...),
		config.WithInterpolation(config.NewMapConfig(values)),
		config.WithLoaderLogger(logger))

	var strategy config.CascadeStrategy = config.NoCascadeStrategy{}
	if len(o.cascade) > 0 {
		strategy = config.NewConcatCascadeStrategy(o.cascade...)
	}

	c := configdi.New(configdi.WithLogger(logger))
	if _, err := binding.Install(c,
		binding.WithLoader(loader),
		binding.WithLibraries(libraries),
		binding.WithCascadeStrategy(strategy),
		binding.WithLogger(logger),
	); err != nil {
		return err
	}
	if err := c.RegisterInstance("dump", &dumpSource{resources: resources}); err != nil {
		return err
	}
	if err := c.Build(); err != nil {
		return err
	}

	return write(out, o.format, libraries.Flatten())
}

func write(out io.Writer, format string, flat map[string]any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		if err := enc.Encode(flat); err != nil {
			return err
		}
		return enc.Close()
	}

	for _, k := range slices.Sorted(maps.Keys(flat)) {
		if _, err := fmt.Fprintf(out, "%s=%v\n", k, flat[k]); err != nil {
			return err
		}
	}
	return nil
}
