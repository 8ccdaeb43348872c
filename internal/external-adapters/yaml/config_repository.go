package yaml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// DefaultAPIIndexPath is the artifact index location, relative to the config file
const DefaultAPIIndexPath = "configData/apiIndex.json"

// yamlConfig represents the raw configuration document
type yamlConfig struct {
	CTKNameMapping       map[string]string         `yaml:"ctk_name_mapping" json:"ctk_name_mapping"`
	URL                  string                    `yaml:"url" json:"url"`
	ReleaseName          string                    `yaml:"releaseName" json:"releaseName"`
	ComponentNamespace   string                    `yaml:"component_namespace" json:"component_namespace"`
	ComponentToRun       string                    `yaml:"component_to_run" json:"component_to_run"`
	RunExposedOptional   bool                      `yaml:"runExposedOptional" json:"runExposedOptional"`
	RunDependentOptional bool                      `yaml:"runDependentOptional" json:"runDependentOptional"`
	RunSecurityOptional  bool                      `yaml:"runSecurityOptional" json:"runSecurityOptional"`
	Download             *yamlDownload             `yaml:"standardComponentDownload" json:"standardComponentDownload"`
	CTKConfig            map[string]any            `yaml:"ctkconfig" json:"ctkconfig"`
	BDDPayloads          map[string]map[string]any `yaml:"bddPayloads" json:"bddPayloads"`
	ReportGeneratorSrc   string                    `yaml:"reportGeneratorSrc" json:"reportGeneratorSrc"`
	StandardComponent    string                    `yaml:"standardComponentPath" json:"standardComponentPath"`
	APIIndexPath         string                    `yaml:"apiIndexPath" json:"apiIndexPath"`
	APIIndexURL          string                    `yaml:"apiIndexUrl" json:"apiIndexUrl"`
}

type yamlDownload struct {
	APIBaseURL string `yaml:"apiBaseUrl" json:"apiBaseUrl"`
	RepoOwner  string `yaml:"repoOwner" json:"repoOwner"`
	RepoName   string `yaml:"repoName" json:"repoName"`
	GitBranch  string `yaml:"gitBranch" json:"gitBranch"`
	RepoPath   string `yaml:"repoPath" json:"repoPath"`
	GitURL     string `yaml:"gitUrl" json:"gitUrl"`
	SSLVerify  *bool  `yaml:"sslVerify" json:"sslVerify"`
}

// ConfigRepository implements repositories.ConfigRepository for a single file
type ConfigRepository struct {
	path string
}

// NewConfigRepository creates a repository reading the file at path
func NewConfigRepository(path string) *ConfigRepository {
	return &ConfigRepository{path: path}
}

// Path returns the configuration file path
func (r *ConfigRepository) Path() string {
	return r.path
}

// Load reads and parses the configuration file. Relative paths in the document
// are resolved against the file's directory.
func (r *ConfigRepository) Load(_ context.Context) (*entities.RunConfig, error) {
	//nolint:gosec // G304: path is the operator-supplied configuration file
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", r.path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", r.path, err)
	}

	abs, err := filepath.Abs(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	resolvePaths(cfg, filepath.Dir(abs))
	return cfg, nil
}

// ParseConfig parses configuration bytes and applies defaults
func ParseConfig(data []byte) (*entities.RunConfig, error) {
	var raw yamlConfig
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	// Tab-indented JSON is not valid YAML, so JSON documents take the JSON path
	if json.Valid(data) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := &entities.RunConfig{
		CTKNameMapping:        raw.CTKNameMapping,
		URL:                   raw.URL,
		ReleaseName:           raw.ReleaseName,
		ComponentNamespace:    raw.ComponentNamespace,
		ComponentToRun:        raw.ComponentToRun,
		RunExposedOptional:    raw.RunExposedOptional,
		RunDependentOptional:  raw.RunDependentOptional,
		RunSecurityOptional:   raw.RunSecurityOptional,
		StandardComponent:     convertDownload(raw.Download),
		CTKConfig:             raw.CTKConfig,
		BDDPayloads:           raw.BDDPayloads,
		ReportGeneratorSrc:    raw.ReportGeneratorSrc,
		StandardComponentPath: raw.StandardComponent,
		APIIndexPath:          raw.APIIndexPath,
		APIIndexURL:           raw.APIIndexURL,
	}

	if cfg.CTKNameMapping == nil {
		cfg.CTKNameMapping = map[string]string{}
	}
	if cfg.ComponentNamespace == "" {
		cfg.ComponentNamespace = "components"
	}
	if cfg.APIIndexPath == "" {
		cfg.APIIndexPath = DefaultAPIIndexPath
	}
	return cfg, nil
}

func convertDownload(yd *yamlDownload) entities.StandardComponentDownload {
	if yd == nil {
		return entities.StandardComponentDownload{SSLVerify: true}
	}
	sslVerify := true
	if yd.SSLVerify != nil {
		sslVerify = *yd.SSLVerify
	}
	return entities.StandardComponentDownload{
		APIBaseURL: yd.APIBaseURL,
		RepoOwner:  yd.RepoOwner,
		RepoName:   yd.RepoName,
		GitBranch:  yd.GitBranch,
		RepoPath:   yd.RepoPath,
		GitURL:     yd.GitURL,
		SSLVerify:  sslVerify,
	}
}

// resolvePaths anchors relative paths at dir. The workspace defaults to the
// parent of the config file's directory (the config lives in componentCTK/).
func resolvePaths(cfg *entities.RunConfig, dir string) {
	anchor := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	if cfg.ReportGeneratorSrc == "" {
		cfg.ReportGeneratorSrc = filepath.Dir(dir)
	} else {
		cfg.ReportGeneratorSrc = anchor(cfg.ReportGeneratorSrc)
	}
	cfg.StandardComponentPath = anchor(cfg.StandardComponentPath)
	cfg.APIIndexPath = anchor(cfg.APIIndexPath)
}
