// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces/gateways"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces/repositories"
	"github.com/ochairo/ctkrunner/internal/domain/services"
)

// ArtifactFetcher materializes a resolved CTK in the artifact root. Discard
// removes an artifact so the next run downloads it again.
type ArtifactFetcher interface {
	Materialize(ctx context.Context, res services.Resolution) (*entities.Artifact, error)
	Discard(artifact *entities.Artifact) error
}

// LayoutNormalizer brings an extracted CTK into canonical layout
type LayoutNormalizer interface {
	Normalize(dir string) (services.LayoutState, error)
}

// CTKRunner executes the CTK mapped to an identifier
type CTKRunner interface {
	Run(ctx context.Context, session *services.Session, identifier string) (*entities.CTKExecution, error)
}

// Outcome statuses recorded per API
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Pipeline stages an API passes through
const (
	StageSelect    = "select"
	StageResolve   = "resolve"
	StageFetch     = "fetch"
	StageNormalize = "normalize"
	StageRun       = "run"
)

// CTKOrchestrator drives one conformance run end to end
type CTKOrchestrator struct {
	workspace    *services.WorkspaceService
	ws           entities.Workspace
	specSource   gateways.SpecificationSource
	specRepo     repositories.ComponentSpecRepository
	indexRepo    repositories.ArtifactIndexRepository
	indexSource  gateways.IndexSource
	manifests    gateways.ManifestProvider
	fetcher      ArtifactFetcher
	normalizer   LayoutNormalizer
	runner       CTKRunner
	renderer     gateways.ReportRenderer
	consolidator *services.ResultConsolidator
	history      repositories.HistoryRepository
	logger       interfaces.Logger
	goos         string
	indexToken   string
	now          func() time.Time
}

// CTKOrchestratorDeps holds the collaborators of the orchestrator. History,
// IndexSource and Renderer are optional.
type CTKOrchestratorDeps struct {
	SpecSource  gateways.SpecificationSource
	SpecRepo    repositories.ComponentSpecRepository
	IndexRepo   repositories.ArtifactIndexRepository
	IndexSource gateways.IndexSource
	Manifests   gateways.ManifestProvider
	Fetcher     ArtifactFetcher
	Normalizer  LayoutNormalizer
	Runner      CTKRunner
	Renderer    gateways.ReportRenderer
	History     repositories.HistoryRepository
}

// CTKOrchestratorConfig holds configuration for the orchestrator
type CTKOrchestratorConfig struct {
	Workspace  entities.Workspace
	GOOS       string // Defaults to runtime.GOOS
	IndexToken string // Sent when downloading the remote artifact index
}

// NewCTKOrchestrator creates a new CTK orchestrator
func NewCTKOrchestrator(deps CTKOrchestratorDeps, config CTKOrchestratorConfig, logger interfaces.Logger) *CTKOrchestrator {
	logger = interfaces.OrNoOp(logger)
	goos := config.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	return &CTKOrchestrator{
		workspace:    services.NewWorkspaceService(config.Workspace, logger),
		ws:           config.Workspace,
		specSource:   deps.SpecSource,
		specRepo:     deps.SpecRepo,
		indexRepo:    deps.IndexRepo,
		indexSource:  deps.IndexSource,
		manifests:    deps.Manifests,
		fetcher:      deps.Fetcher,
		normalizer:   deps.Normalizer,
		runner:       deps.Runner,
		renderer:     deps.Renderer,
		consolidator: services.NewResultConsolidator(logger),
		history:      deps.History,
		logger:       logger,
		goos:         goos,
		indexToken:   config.IndexToken,
		now:          time.Now,
	}
}

// RunReport summarizes a run
type RunReport struct {
	RunID             string
	Component         string
	SpecificationPath string
	ConsolidatedPath  string
	PublishedDir      string
	Outcomes          []repositories.APIOutcome
	Skipped           bool   // The run ended early without doing any work
	Reason            string // Why the run was skipped
	Duration          time.Duration
}

// Counts returns the number of outcomes per status
func (r *RunReport) Counts() map[string]int {
	counts := make(map[string]int)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// Run executes the whole workflow for the configured component. Per-API failures
// are logged and recorded; only errors wrapping services.ErrFatal, context
// cancellation or local write failures abort the run.
func (o *CTKOrchestrator) Run(ctx context.Context, session *services.Session, cfg *entities.RunConfig) (report *RunReport, err error) {
	start := o.now()
	report = &RunReport{RunID: session.RunID}
	defer func() { report.Duration = time.Since(start) }()

	// Step 1: Component under test
	component := services.NormalizeComponentName(cfg.ComponentToRun)
	if component == "" {
		o.logger.Warn("no component name found to run the CTK")
		return o.skip(report, "no component_to_run configured"), nil
	}
	report.Component = component

	// Step 2: Platform, before anything touches the disk
	if _, err := services.ResolvePlatform(o.goos); err != nil {
		return report, err
	}

	o.startHistory(ctx, report, cfg, start)
	defer func() {
		status := "completed"
		switch {
		case err != nil:
			status = "aborted"
		case report.Skipped:
			status = "skipped"
		}
		o.finishHistory(ctx, report.RunID, status)
	}()

	// Step 3: Fresh results area
	o.workspace.ResetResults()

	// Step 4: Standard component specification
	specPath, err := o.specSource.Locate(ctx, component)
	if err != nil {
		o.logger.Error("component specification could not be downloaded", interfaces.Err(err))
		return o.skip(report, "component specification unavailable"), nil
	}
	if specPath == "" {
		o.logger.Warn("component specification not published", interfaces.F("component", component))
		return o.skip(report, "component specification not found"), nil
	}
	report.SpecificationPath = specPath
	o.logger.Info("component specification ready", interfaces.F("path", specPath))

	// Step 5: Deployment manifest
	namespace := cfg.ComponentNamespace
	if namespace == "" {
		namespace = services.DefaultComponentNamespace
	}
	manifest, err := o.manifests.GetManifest(ctx, cfg.ReleaseName, namespace)
	if err != nil {
		return report, fmt.Errorf("%w: release %q: %w", services.ErrManifestUnavailable, cfg.ReleaseName, err)
	}
	if _, err := o.workspace.WriteManifest(cfg.ReleaseName, manifest); err != nil {
		return report, err
	}

	// Step 6: Report generator inputs
	if err := o.workspace.WriteCTKConfig(cfg, filepath.Base(specPath)); err != nil {
		return report, err
	}
	n, err := o.workspace.PreparePayloads(cfg, component)
	if err != nil {
		return report, err
	}
	o.logger.Info("bdd payloads prepared", interfaces.F("count", n))

	// Step 7: Specification and artifact index
	spec, err := o.specRepo.GetSpecification(ctx, specPath)
	if err != nil {
		return report, fmt.Errorf("failed to read component specification: %w", err)
	}
	index := o.loadIndex(ctx, cfg)

	// Step 8: Per-API pipeline
	for _, category := range entities.Categories() {
		o.logger.Info(category.Label())
		for _, api := range spec.APIs(category) {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			outcome, err := o.processAPI(ctx, session, cfg, index, category, api)
			o.record(ctx, report, outcome)
			if err != nil {
				return report, err
			}
		}
	}

	// Step 9: Rendered reports (black box)
	if o.renderer != nil {
		o.logger.Info("generating report")
		if err := o.renderer.Render(ctx, o.ws.SourceDir()); err != nil {
			o.logger.Warn("report generation failed", interfaces.Err(err))
		}
	}

	// Step 10: Consolidation
	consolidated := o.consolidator.Consolidate(services.ConsolidationSources{
		ResultsDir: o.ws.ResultsDir(),
		PayloadDir: o.ws.PayloadDir(),
	})
	report.ConsolidatedPath = o.ws.ConsolidatedReportPath()
	if err := services.WriteReport(report.ConsolidatedPath, consolidated); err != nil {
		return report, err
	}

	// Step 11: Final report folder
	name := strings.SplitN(filepath.Base(specPath), ".", 2)[0]
	published, err := o.workspace.Publish(name, report.ConsolidatedPath)
	if err != nil {
		return report, err
	}
	report.PublishedDir = published
	o.logger.Info("run complete", interfaces.F("reports", published))
	return report, nil
}

// processAPI takes one API through resolve, fetch, normalize and run. The
// returned error is non-nil only when the run must stop.
func (o *CTKOrchestrator) processAPI(
	ctx context.Context,
	session *services.Session,
	cfg *entities.RunConfig,
	index *entities.ArtifactIndex,
	category entities.APICategory,
	api entities.APIRef,
) (repositories.APIOutcome, error) {
	outcome := repositories.APIOutcome{
		RunID:      session.RunID,
		Category:   string(category),
		Identifier: api.ID,
		Stage:      StageSelect,
	}
	log := o.logger.With(interfaces.F("api", api.ID))

	if !api.Required && !cfg.RunOptional(category) {
		log.Debug("optional API not selected")
		return skipped(outcome, "optional API not selected"), nil
	}

	outcome.Stage = StageResolve
	res, ok := session.Resolve(api.ID, index)
	if !ok {
		log.Warn("CTK not available", interfaces.Err(services.ErrArtifactNotFound))
		return skipped(outcome, services.ErrArtifactNotFound.Error()), nil
	}
	outcome.CanonicalName = res.CanonicalName
	log.Info("resolved CTK", interfaces.F("index_key", res.IndexKey), interfaces.F("artifact", res.CanonicalName))

	outcome.Stage = StageFetch
	artifact, err := o.fetcher.Materialize(ctx, res)
	if err != nil {
		log.Error("failed to fetch CTK", interfaces.Err(err))
		return failed(outcome, err), passThroughFatal(ctx, err)
	}

	outcome.Stage = StageNormalize
	state, err := o.normalizer.Normalize(artifact.Path)
	if err != nil {
		log.Error("failed to normalize CTK", interfaces.F("layout", state.String()), interfaces.Err(err))
		if discardErr := o.fetcher.Discard(artifact); discardErr != nil {
			log.Warn("failed to discard unusable CTK", interfaces.Err(discardErr))
		}
		return failed(outcome, err), passThroughFatal(ctx, err)
	}

	if o.runner == nil {
		outcome.Status = StatusSkipped
		outcome.Message = "execution disabled"
		return outcome, nil
	}

	outcome.Stage = StageRun
	execution, err := o.runner.Run(ctx, session, api.ID)
	if execution != nil {
		outcome.ExitCode = execution.ExitCode
		outcome.Status = execution.Status
	}
	if err != nil {
		log.Error("CTK run failed", interfaces.Err(err))
		if execution == nil || outcome.Status == StatusPassed {
			outcome.Status = StatusError
		}
		outcome.Message = err.Error()
		return outcome, passThroughFatal(ctx, err)
	}
	return outcome, nil
}

// loadIndex refreshes the remote index when configured and reads the local copy.
// Both steps degrade to an empty index so the run still consolidates.
func (o *CTKOrchestrator) loadIndex(ctx context.Context, cfg *entities.RunConfig) *entities.ArtifactIndex {
	if cfg.APIIndexURL != "" && o.indexSource != nil {
		if err := o.indexSource.FetchIndex(ctx, cfg.APIIndexURL, o.indexToken, cfg.APIIndexPath); err != nil {
			o.logger.Warn("failed to refresh artifact index, using local copy", interfaces.Err(err))
		} else {
			o.logger.Info("artifact index downloaded", interfaces.F("path", cfg.APIIndexPath))
		}
	}

	index, err := o.indexRepo.GetIndex(ctx, cfg.APIIndexPath)
	if err != nil {
		o.logger.Error("artifact index unavailable, no CTK will be resolved", interfaces.Err(err))
		return &entities.ArtifactIndex{}
	}
	o.logger.Info("artifact index loaded", interfaces.F("entries", index.Len()))
	return index
}

func (o *CTKOrchestrator) skip(report *RunReport, reason string) *RunReport {
	report.Skipped = true
	report.Reason = reason
	return report
}

func (o *CTKOrchestrator) record(ctx context.Context, report *RunReport, outcome repositories.APIOutcome) {
	report.Outcomes = append(report.Outcomes, outcome)
	if o.history == nil {
		return
	}
	if err := o.history.RecordOutcome(ctx, outcome); err != nil {
		o.logger.Warn("failed to record outcome", interfaces.Err(err))
	}
}

func (o *CTKOrchestrator) startHistory(ctx context.Context, report *RunReport, cfg *entities.RunConfig, start time.Time) {
	if o.history == nil {
		return
	}
	err := o.history.StartRun(ctx, repositories.RunRecord{
		RunID:     report.RunID,
		Component: report.Component,
		Release:   cfg.ReleaseName,
		StartedAt: start,
		Status:    "running",
	})
	if err != nil {
		o.logger.Warn("failed to record run start", interfaces.Err(err))
	}
}

func (o *CTKOrchestrator) finishHistory(ctx context.Context, runID, status string) {
	if o.history == nil {
		return
	}
	// The run context may already be cancelled
	if err := o.history.FinishRun(context.WithoutCancel(ctx), runID, status, o.now()); err != nil {
		o.logger.Warn("failed to record run end", interfaces.Err(err))
	}
}

func skipped(outcome repositories.APIOutcome, reason string) repositories.APIOutcome {
	outcome.Status = StatusSkipped
	outcome.Message = reason
	return outcome
}

func failed(outcome repositories.APIOutcome, err error) repositories.APIOutcome {
	outcome.Status = StatusError
	outcome.Message = err.Error()
	return outcome
}

// passThroughFatal keeps errors that must stop the run and drops the rest
func passThroughFatal(ctx context.Context, err error) error {
	if services.IsFatal(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	return nil
}
