package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
	"github.com/ochairo/ctkrunner/internal/domain/services"
)

// Output files every CTK writes into its own directory
const (
	HTMLResultsFile = "htmlResults.html"
	JSONResultsFile = "jsonResults.json"
)

// CTKRunnerConfig configures a CTKRunner
type CTKRunnerConfig struct {
	ArtifactRoot string
	ResultsDir   string // results/api-ctk-results
	Platform     services.PlatformFamily
	BaseURL      string // Deployed component URL written into each CTK config.json
	Policy       services.ExitPolicy
	Timeout      time.Duration
}

// CTKRunner executes normalized CTKs and relocates their results
type CTKRunner struct {
	config   CTKRunnerConfig
	executor *ScriptExecutor
	logger   interfaces.Logger
}

// NewCTKRunner creates a runner
func NewCTKRunner(config CTKRunnerConfig, executor *ScriptExecutor, logger interfaces.Logger) *CTKRunner {
	if config.Policy.Rules == nil {
		config.Policy = services.DefaultExitPolicy()
	}
	return &CTKRunner{config: config, executor: executor, logger: interfaces.OrNoOp(logger)}
}

// Run executes the CTK mapped to identifier in the session. A non-zero exit is
// recorded in the result; only an exit policy rule with ActionFatal yields a
// fatal error.
func (r *CTKRunner) Run(ctx context.Context, session *services.Session, identifier string) (*entities.CTKExecution, error) {
	name, ok := session.ArtifactName(identifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrArtifactNotFound, identifier)
	}
	// Paths are made absolute before the working directory changes
	dir, err := filepath.Abs(filepath.Join(r.config.ArtifactRoot, name))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact directory: %w", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", services.ErrArtifactMissing, dir)
	}
	resultsDir, err := filepath.Abs(r.config.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve results directory: %w", err)
	}

	if r.config.BaseURL != "" {
		if err := ConfigureArtifact(dir, r.config.BaseURL); err != nil {
			return nil, err
		}
	}

	script := filepath.Join(dir, r.config.Platform.EntryScript())
	//nolint:gosec // G302: entry script must be executable
	if err := os.Chmod(script, 0755); err != nil {
		return nil, fmt.Errorf("entry script not usable: %w", err)
	}

	result := &entities.CTKExecution{Identifier: identifier, CanonicalName: name}
	command, args := r.entryCommand(script)

	var rule services.ExitRule
	err = withWorkingDir(dir, func() error {
		r.logger.Info("executing CTK", interfaces.F("artifact", name), interfaces.F("script", filepath.Base(script)))
		res := r.executor.Execute(ctx, ExecuteConfig{
			Command:     command,
			Args:        args,
			WorkingDir:  dir,
			Timeout:     r.config.Timeout,
			Description: name,
		})
		rule = r.config.Policy.Evaluate(res.ExitCode)
		result.ExitCode = res.ExitCode
		result.Status = rule.Status
		result.Duration = res.Duration
		r.logger.Info("CTK finished",
			interfaces.F("artifact", name),
			interfaces.F("exit_code", res.ExitCode),
			interfaces.F("status", rule.Status),
			interfaces.F("duration", res.Duration.Round(time.Millisecond)))
		if res.Error != nil && res.ExitCode < 0 {
			r.logger.Warn("CTK did not complete", interfaces.F("artifact", name), interfaces.Err(res.Error))
		}
		return relocate(result, dir, resultsDir)
	})
	if err != nil {
		return result, err
	}

	if rule.Action == services.ActionFatal {
		return result, fmt.Errorf("%w: CTK %s exited with code %d", services.ErrFatal, name, result.ExitCode)
	}
	return result, nil
}

func (r *CTKRunner) entryCommand(script string) (string, []string) {
	if r.config.Platform == services.PlatformWindows {
		return "cmd", []string{"/C", script}
	}
	// Vendor scripts do not always carry a shebang
	return "/bin/sh", []string{script}
}

// relocate moves the CTK output pair into the results area as <name>.html/.json
func relocate(result *entities.CTKExecution, dir, resultsDir string) error {
	var errs []error
	for _, out := range []struct {
		src  string
		ext  string
		dest *string
	}{
		{HTMLResultsFile, ".html", &result.HTMLPath},
		{JSONResultsFile, ".json", &result.JSONPath},
	} {
		dst := filepath.Join(resultsDir, result.CanonicalName+out.ext)
		if err := moveFile(filepath.Join(dir, out.src), dst); err != nil {
			errs = append(errs, fmt.Errorf("failed to relocate %s: %w", out.src, err))
			continue
		}
		*out.dest = dst
	}
	return errors.Join(errs...)
}

// ConfigureArtifact points the CTK config.json at the deployed component
func ConfigureArtifact(dir, baseURL string) error {
	path := filepath.Join(dir, services.ConfigFileName)
	//nolint:gosec // G304: config.json inside the artifact directory
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read CTK config: %w", err)
	}

	var cfg map[string]any
	if err := json.Unmarshal(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), &cfg); err != nil {
		return fmt.Errorf("failed to parse CTK config: %w", err)
	}
	if cfg == nil {
		cfg = make(map[string]any)
	}
	cfg["url"] = strings.TrimRight(baseURL, "/") + "/"

	out, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal CTK config: %w", err)
	}
	//nolint:gosec // G306: config.json is read by the CTK
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write CTK config: %w", err)
	}
	return nil
}
