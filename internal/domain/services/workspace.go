package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
)

// DefaultComponentNamespace is used when the configuration names none
const DefaultComponentNamespace = "components"

// NormalizeComponentName upper-cases a component identifier ("tmfc028" -> "TMFC028")
func NormalizeComponentName(name string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(name))
}

// WorkspaceService prepares and publishes the on-disk areas of a run
type WorkspaceService struct {
	ws     entities.Workspace
	logger interfaces.Logger
}

// NewWorkspaceService creates a workspace service
func NewWorkspaceService(ws entities.Workspace, logger interfaces.Logger) *WorkspaceService {
	return &WorkspaceService{ws: ws, logger: interfaces.OrNoOp(logger)}
}

// ResetResults clears the results area and recreates it. Best-effort: failures are
// logged and never returned.
func (s *WorkspaceService) ResetResults() {
	dir := s.ws.ResultsDir()
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to delete results directory", interfaces.F("path", dir), interfaces.Err(err))
	} else {
		s.logger.Info("cleared old results directory", interfaces.F("path", dir))
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		s.logger.Warn("failed to create results directory", interfaces.F("path", dir), interfaces.Err(err))
	}
}

// WriteManifest stores the deployment manifest of a release and returns its path
func (s *WorkspaceService) WriteManifest(releaseName, manifest string) (string, error) {
	path := s.ws.ManifestPath(releaseName)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create resources directory: %w", err)
	}
	//nolint:gosec // G306: manifest is read by the report generator
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	s.logger.Info("component manifest saved", interfaces.F("path", path))
	return path, nil
}

// BuildCTKConfig assembles the report generator configuration for a specification file
func BuildCTKConfig(cfg *entities.RunConfig, specFileName string) map[string]any {
	out := make(map[string]any, len(cfg.CTKConfig)+8)
	for k, v := range cfg.CTKConfig {
		out[k] = v
	}

	namespace := cfg.ComponentNamespace
	if namespace == "" {
		namespace = DefaultComponentNamespace
	}
	out["goldenComponentFilePath"] = "../resources/standard-components/" + specFileName
	out["componentName"] = strings.SplitN(specFileName, ".", 2)[0]
	out["componentFilePath"] = "../resources/component-" + cfg.ReleaseName + ".yaml"
	out["component_namespace"] = namespace
	out["runExposedOptional"] = cfg.RunExposedOptional
	out["runDependentOptional"] = cfg.RunDependentOptional
	out["runSecurityOptional"] = cfg.RunSecurityOptional
	if _, ok := out["ctkConfig"]; !ok {
		out["ctkConfig"] = map[string]any{}
	}
	return out
}

// WriteCTKConfig replaces ctkconfig.json
func (s *WorkspaceService) WriteCTKConfig(cfg *entities.RunConfig, specFileName string) error {
	path := s.ws.CTKConfigPath()
	if err := os.Remove(path); err == nil {
		s.logger.Debug("removed old ctkconfig.json", interfaces.F("path", path))
	}
	return writeJSONFile(path, BuildCTKConfig(cfg, specFileName), "    ")
}

// PreparePayloads recreates the BDD payload directory and writes the payloads
// configured for the component under test. Returns the number of files written.
func (s *WorkspaceService) PreparePayloads(cfg *entities.RunConfig, component string) (int, error) {
	dir := s.ws.PayloadDir()
	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("failed to clear payload directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return 0, fmt.Errorf("failed to create payload directory: %w", err)
	}

	payloads := cfg.BDDPayloads[cases.Lower(language.Und).String(component)]
	for name, payload := range payloads {
		path := filepath.Join(dir, name+".json")
		if err := writeJSONFile(path, payload, "  "); err != nil {
			return 0, err
		}
		s.logger.Debug("created payload file", interfaces.F("path", path))
	}
	return len(payloads), nil
}

// Publish copies rendered reports, raw results and the consolidated document into
// Reports/<componentName>, replacing any previous copy
func (s *WorkspaceService) Publish(componentName, consolidatedPath string) (string, error) {
	dest := s.ws.FinalReportDir(componentName)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("failed to clear report directory: %w", err)
	}
	if err := os.MkdirAll(dest, 0750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	for _, c := range []struct{ src, name string }{
		{s.ws.RenderedReportsDir(), "reports"},
		{s.ws.ResultsDir(), "results"},
	} {
		src, name := c.src, c.name
		if !isDir(src) {
			s.logger.Warn("unable to copy results, source does not exist", interfaces.F("path", src))
			continue
		}
		if err := os.CopyFS(filepath.Join(dest, name), os.DirFS(src)); err != nil {
			return "", fmt.Errorf("failed to copy %s: %w", name, err)
		}
	}

	//nolint:gosec // G304: consolidated report path is produced by this run
	data, err := os.ReadFile(consolidatedPath)
	if err != nil {
		return "", fmt.Errorf("failed to read consolidated report: %w", err)
	}
	//nolint:gosec // G306: published report is world-readable
	if err := os.WriteFile(filepath.Join(dest, "consolidateResults.json"), data, 0644); err != nil {
		return "", fmt.Errorf("failed to copy consolidated report: %w", err)
	}
	return dest, nil
}

func writeJSONFile(path string, v any, indent string) error {
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filepath.Base(path), err)
	}
	//nolint:gosec // G306: generated configuration is read by the report generator
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
