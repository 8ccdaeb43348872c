package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
	"github.com/ochairo/ctkrunner/internal/external-adapters/logging"
	"github.com/ochairo/ctkrunner/internal/external-adapters/yaml"
)

// rootOptions holds global flags for all commands
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Format     string
	HistoryDB  string
}

var validFormats = []string{"text", "json"}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ctkrunner",
		Short: "Run API conformance test kits against a deployed component",
		Long: `ctkrunner resolves the conformance test kit (CTK) of every API a component
declares, downloads and normalizes each kit, executes it against the deployed
component and consolidates all results into one report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return wrapExitError(exitFailure, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}
			if !slices.Contains(validFormats, opts.LogFormat) {
				return wrapExitError(exitFailure, fmt.Sprintf("invalid log format %q: must be one of %v", opts.LogFormat, validFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "CHANGE_ME.json", "path to the run configuration (JSON or YAML)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.HistoryDB, "history-db", "", "SQLite database recording run history (disabled when empty)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newResolveCommand(opts))
	cmd.AddCommand(newConsolidateCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))

	return cmd
}

func (o *rootOptions) logger(w io.Writer) interfaces.Logger {
	return logging.NewSlogLogger(o.LogLevel, o.LogFormat, w)
}

func (o *rootOptions) loadConfig(ctx context.Context) (*entities.RunConfig, error) {
	cfg, err := yaml.NewConfigRepository(o.ConfigPath).Load(ctx)
	if err != nil {
		return nil, wrapExitError(exitFailure, "failed to load configuration", err)
	}
	return cfg, nil
}

// print writes v as JSON, or calls text for human-readable output
func (o *rootOptions) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func indexToken() string {
	return os.Getenv("CTK_INDEX_TOKEN")
}
