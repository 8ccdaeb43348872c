package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ochairo/ctkrunner/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/ctkrunner/internal/domain-orchestrators"
	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces/repositories"
	"github.com/ochairo/ctkrunner/internal/domain/services"
	"github.com/ochairo/ctkrunner/internal/external-adapters/sqlite"
	"github.com/ochairo/ctkrunner/internal/external-adapters/yaml"
)

type runOptions struct {
	*rootOptions
	Timeout       time.Duration
	SkipRender    bool
	SkipExecution bool
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the CTKs of the configured component",
		Long: `Run every CTK the configured component declares.

The standard component specification is located (locally or in the
publication repository), the deployment manifest is read with helm, each
required API is resolved against the artifact index, downloaded, normalized
and executed, and all results are consolidated and published under
componentCTK/Reports/<component>.

Example:
  ctkrunner run --config componentCTK/CHANGE_ME.json
  ctkrunner run --history-db ctk-history.db --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCTKs(cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 60*time.Minute, "timeout per CTK execution")
	cmd.Flags().BoolVar(&opts.SkipRender, "skip-render", false, "do not run the npm report generator")
	cmd.Flags().BoolVar(&opts.SkipExecution, "skip-execution", false, "download and normalize CTKs without executing them")

	return cmd
}

func runCTKs(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	cfg, err := opts.loadConfig(ctx)
	if err != nil {
		return err
	}

	session := services.NewSession(cfg.CTKNameMapping)
	logger := opts.logger(cmd.ErrOrStderr()).With(interfaces.F("run_id", session.RunID))

	var history repositories.HistoryRepository
	if opts.HistoryDB != "" {
		store, err := sqlite.Open(opts.HistoryDB)
		if err != nil {
			return wrapExitError(exitFailure, "failed to open history database", err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				logger.Error("error closing history database", interfaces.Err(closeErr))
			}
		}()
		history = store
	}

	orch, err := buildOrchestrator(cfg, opts, history, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	report, err := orch.Run(ctx, session, cfg)
	if err != nil {
		return wrapRunError("CTK run aborted", err)
	}
	return opts.print(cmd.OutOrStdout(), report, func(w io.Writer) { printRunReport(w, report) })
}

// buildOrchestrator wires the production adapters
func buildOrchestrator(
	cfg *entities.RunConfig,
	opts *runOptions,
	history repositories.HistoryRepository,
	logger interfaces.Logger,
	console io.Writer,
) (*orchestrators.CTKOrchestrator, error) {
	ws := entities.NewWorkspace(cfg.ReportGeneratorSrc)

	// Checked again by the orchestrator; the runner needs it up front
	platform, err := services.HostPlatform()
	if err != nil {
		return nil, wrapRunError("cannot run CTKs on this host", err)
	}

	specDir := cfg.StandardComponentPath
	if specDir == "" {
		specDir = ws.StandardComponentsDir()
	}

	download := cfg.StandardComponent
	github := gateways.NewHTTPGitHubGateway(download.APIBaseURL, os.Getenv("GITHUB_TOKEN"), download.SSLVerify)
	downloader := gateways.NewDownloader(download.SSLVerify, logger)
	executor := gateways.NewScriptExecutor()

	deps := orchestrators.CTKOrchestratorDeps{
		SpecSource:  gateways.NewStandardComponentSource(specDir, download, github, logger),
		SpecRepo:    yaml.NewComponentParser(),
		IndexRepo:   yaml.NewIndexParser(),
		IndexSource: downloader,
		Manifests:   gateways.NewHelmManifestProvider(executor),
		Fetcher:     gateways.NewArtifactFetcher(ws.ArtifactRoot(), downloader, logger),
		Normalizer:  services.NewLayoutNormalizer(logger),
		History:     history,
	}
	if !opts.SkipExecution {
		deps.Runner = gateways.NewCTKRunner(gateways.CTKRunnerConfig{
			ArtifactRoot: ws.ArtifactRoot(),
			ResultsDir:   ws.APIResultsDir(),
			Platform:     platform,
			BaseURL:      cfg.URL,
			Timeout:      opts.Timeout,
		}, executor, logger)
	}
	if !opts.SkipRender {
		deps.Renderer = gateways.NewNPMReportRenderer(executor, console)
	}

	return orchestrators.NewCTKOrchestrator(deps, orchestrators.CTKOrchestratorConfig{
		Workspace:  ws,
		IndexToken: indexToken(),
	}, logger), nil
}

func printRunReport(w io.Writer, report *orchestrators.RunReport) {
	if report.Skipped {
		fmt.Fprintf(w, "Run %s skipped: %s\n", report.RunID, report.Reason)
		return
	}
	fmt.Fprintf(w, "Run %s for %s finished in %s\n", report.RunID, report.Component, report.Duration.Round(time.Second))
	counts := report.Counts()
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(w, "  %-8s %d\n", status, counts[status])
	}
	for _, o := range report.Outcomes {
		if o.Status == orchestrators.StatusPassed || o.Stage == orchestrators.StageSelect {
			continue
		}
		fmt.Fprintf(w, "  %s %s (%s): %s\n", o.Identifier, o.Status, o.Stage, o.Message)
	}
	fmt.Fprintf(w, "Consolidated report: %s\n", report.ConsolidatedPath)
	fmt.Fprintf(w, "Published to: %s\n", report.PublishedDir)
}
