package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ochairo/ctkrunner/internal/domain-adapters/gateways"
	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/services"
	"github.com/ochairo/ctkrunner/internal/external-adapters/yaml"
)

type resolveOptions struct {
	*rootOptions
	SpecPath string
	Refresh  bool
}

// resolution is one row of the resolve output
type resolution struct {
	Identifier    string `json:"identifier"`
	Resolved      bool   `json:"resolved"`
	IndexKey      string `json:"indexKey,omitempty"`
	CanonicalName string `json:"canonicalName,omitempty"`
	DownloadURL   string `json:"downloadUrl,omitempty"`
}

func newResolveCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &resolveOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve [identifier...]",
		Short: "Show which CTK each API identifier resolves to",
		Long: `Resolve API identifiers against the artifact index without downloading
anything. Identifiers come from the arguments or, with --spec, from every API
of a component specification.

Example:
  ctkrunner resolve TMF620 TMF632
  ctkrunner resolve --spec resources/standard-components/TMFC028-PartyManagement.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveIdentifiers(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.SpecPath, "spec", "", "component specification whose APIs are resolved")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "download the remote artifact index first")

	return cmd
}

func resolveIdentifiers(cmd *cobra.Command, opts *resolveOptions, args []string) error {
	ctx := cmd.Context()
	cfg, err := opts.loadConfig(ctx)
	if err != nil {
		return err
	}

	ids := append([]string(nil), args...)
	if opts.SpecPath != "" {
		spec, err := yaml.NewComponentParser().ParseFile(opts.SpecPath)
		if err != nil {
			return wrapExitError(exitFailure, "failed to read component specification", err)
		}
		for _, category := range entities.Categories() {
			for _, api := range spec.APIs(category) {
				ids = append(ids, api.ID)
			}
		}
	}
	if len(ids) == 0 {
		return wrapExitError(exitFailure, "no identifiers given (pass identifiers or --spec)", nil)
	}

	if opts.Refresh && cfg.APIIndexURL != "" {
		logger := opts.logger(cmd.ErrOrStderr())
		downloader := gateways.NewDownloader(cfg.StandardComponent.SSLVerify, logger)
		if err := downloader.FetchIndex(ctx, cfg.APIIndexURL, indexToken(), cfg.APIIndexPath); err != nil {
			return wrapExitError(exitFailure, "failed to refresh artifact index", err)
		}
	}

	index, err := yaml.NewIndexParser().GetIndex(ctx, cfg.APIIndexPath)
	if err != nil {
		return wrapExitError(exitFailure, "failed to load artifact index", err)
	}

	session := services.NewSession(cfg.CTKNameMapping)
	rows := make([]resolution, 0, len(ids))
	for _, id := range ids {
		row := resolution{Identifier: id}
		if res, ok := session.Resolve(id, index); ok {
			row.Resolved = true
			row.IndexKey = res.IndexKey
			row.CanonicalName = res.CanonicalName
			row.DownloadURL = res.DownloadURL
		}
		rows = append(rows, row)
	}

	return opts.print(cmd.OutOrStdout(), rows, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "IDENTIFIER\tARTIFACT\tINDEX KEY\tURL")
		for _, r := range rows {
			if !r.Resolved {
				fmt.Fprintf(tw, "%s\t-\t-\tnot available\n", r.Identifier)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Identifier, r.CanonicalName, r.IndexKey, r.DownloadURL)
		}
		_ = tw.Flush()
	})
}
