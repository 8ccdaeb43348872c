package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/services"
)

type consolidateOptions struct {
	*rootOptions
	ResultsDir string
	PayloadDir string
	Output     string
}

func newConsolidateCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &consolidateOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge existing results into the consolidated report",
		Long: `Rebuild consolidatedResults.json from the results already on disk. Every
source is optional; missing or malformed files leave their field empty.

Example:
  ctkrunner consolidate
  ctkrunner consolidate --results-dir ./results --output ./consolidated.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return consolidate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ResultsDir, "results-dir", "", "results directory (default: from the configuration workspace)")
	cmd.Flags().StringVar(&opts.PayloadDir, "payload-dir", "", "BDD payload directory (default: from the configuration workspace)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: resources/consolidatedResults.json)")

	return cmd
}

func consolidate(cmd *cobra.Command, opts *consolidateOptions) error {
	src := services.ConsolidationSources{ResultsDir: opts.ResultsDir, PayloadDir: opts.PayloadDir}
	output := opts.Output

	if src.ResultsDir == "" || src.PayloadDir == "" || output == "" {
		cfg, err := opts.loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		ws := entities.NewWorkspace(cfg.ReportGeneratorSrc)
		if src.ResultsDir == "" {
			src.ResultsDir = ws.ResultsDir()
		}
		if src.PayloadDir == "" {
			src.PayloadDir = ws.PayloadDir()
		}
		if output == "" {
			output = ws.ConsolidatedReportPath()
		}
	}

	report := services.NewResultConsolidator(opts.logger(cmd.ErrOrStderr())).Consolidate(src)
	if err := services.WriteReport(output, report); err != nil {
		return wrapExitError(exitFailure, "failed to write consolidated report", err)
	}

	summary := map[string]any{
		"output":        output,
		"apiCtkResults": len(report.APICTKResults),
		"bddPayloads":   len(report.BDDPayloads),
	}
	return opts.print(cmd.OutOrStdout(), summary, func(w io.Writer) {
		fmt.Fprintf(w, "Consolidated %d API results and %d payloads into %s\n",
			len(report.APICTKResults), len(report.BDDPayloads), output)
	})
}
