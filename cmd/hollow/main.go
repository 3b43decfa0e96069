// Command hollow manages fixture files: it scaffolds responses for service
// methods from their specifications.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/client"
	"github.com/Paranoid-AF/hollow/fio"
	"github.com/Paranoid-AF/hollow/spec"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type app struct {
	verbose bool
	specDir string
	// loader, when set, takes precedence over specDir and the configuration.
	loader spec.Loader
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "hollow",
		Short:        "Manage hollow fixture files",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "log debug output to stderr")
	root.PersistentFlags().StringVar(&a.specDir, "spec-dir", "", "service specification directory (overrides HOLLOW_SPEC_DIR)")

	root.AddCommand(newAddCmd(a), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "hollow", Version)
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var format, prefix string
	cmd := &cobra.Command{
		Use:   "add <service.method> <path|->",
		Short: "Add a skeleton response for a service method",
		Long: `Add a skeleton response for a service method to a fixture file.

The response is built from the method's output shape. A method that already
has a response gets a queue of responses. Pass "-" as the path to print the
result instead of writing it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAdd(cmd, args[0], args[1], format, prefix)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "file format: yaml, toml or json (default: from the file extension)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "dotted key path under which the fixture data lives (default: files.prefix)")
	return cmd
}

func (a *app) runAdd(cmd *cobra.Command, operation, path, format, prefix string) error {
	service, method, ok := strings.Cut(operation, ".")
	if !ok || service == "" || method == "" {
		return fmt.Errorf("operation %q must have the form service.method", operation)
	}

	loader, err := a.specLoader()
	if err != nil {
		return err
	}

	cfg, err := hollow.LoadConfig()
	if err != nil {
		return err
	}
	if prefix == "" {
		prefix = cfg.Files.Prefix
	}

	keys := fio.ParsePrefix(prefix)
	configs := map[string]any{}
	if path != "-" {
		data, err := fio.Read(path, keys, format)
		switch {
		case err == nil:
			configs = data
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("starting from empty configuration", "path", path)
		default:
			return err
		}
	}

	fx := client.New(configs, client.WithLoader(loader))
	if err := fx.AddCall(service, method, nil); err != nil {
		return err
	}

	if path != "-" {
		if err := fio.Write(path, fx.Data(), keys, format); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "[ADDED] New call has been added to the configs.")
		return nil
	}

	if format == "" {
		format = hollow.ResolveFormat(cfg)
	}
	out, err := fio.Encode(fx.Data(), format)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	fmt.Fprintln(cmd.ErrOrStderr(), "[ECHOED] New call has been echoed to stdout.")
	return nil
}

func (a *app) specLoader() (spec.Loader, error) {
	if a.loader != nil {
		return a.loader, nil
	}
	if a.specDir == "" {
		c, err := client.DefaultLoader()
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	cfg, err := hollow.LoadConfig()
	if err != nil {
		return nil, err
	}
	l := spec.NewDirLoader(a.specDir)
	l.Augment = hollow.AugmentationsEnabled(cfg)
	l.Depth = hollow.ResolveDepth(cfg)
	return spec.NewCache(l, 0), nil
}
