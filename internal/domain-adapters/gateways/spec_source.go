package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces/gateways"
)

// StandardComponentSource finds standard component specifications locally or in
// the publication repository
type StandardComponentSource struct {
	dir      string
	download entities.StandardComponentDownload
	github   gateways.GitHubGateway
	logger   interfaces.Logger
}

// NewStandardComponentSource creates a source caching specifications in dir
func NewStandardComponentSource(dir string, download entities.StandardComponentDownload, github gateways.GitHubGateway, logger interfaces.Logger) *StandardComponentSource {
	return &StandardComponentSource{dir: dir, download: download, github: github, logger: interfaces.OrNoOp(logger)}
}

// Locate returns the path of the specification for componentName. A local file
// named <componentName>*.yaml wins; otherwise the repository is searched for a
// folder named <componentName>-* and its YAML is downloaded into dir.
func (s *StandardComponentSource) Locate(ctx context.Context, componentName string) (string, error) {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create standard components directory: %w", err)
	}

	if path, ok := s.findLocal(componentName); ok {
		s.logger.Info("found existing component specification", interfaces.F("path", path))
		return path, nil
	}

	if s.github == nil || s.download.RepoOwner == "" || s.download.RepoName == "" {
		s.logger.Warn("no standard component repository configured", interfaces.F("component", componentName))
		return "", nil
	}

	contents, err := s.github.ListContents(ctx, s.download.RepoOwner, s.download.RepoName, s.download.GitBranch)
	if err != nil {
		return "", err
	}

	folder := ""
	for _, item := range contents {
		if item.Type == "dir" && strings.HasPrefix(item.Name, componentName+"-") {
			folder = item.Name
			break
		}
	}
	if folder == "" {
		s.logger.Warn("no matching folder found for component", interfaces.F("component", componentName))
		return "", nil
	}

	rawURL := s.RawURL(folder)
	s.logger.Info("downloading component specification", interfaces.F("url", rawURL))
	data, err := s.github.FetchRaw(ctx, rawURL)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(s.dir, folder+".yaml")
	//nolint:gosec // G306: specification is read by the report generator
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save component specification: %w", err)
	}
	s.logger.Info("component specification saved", interfaces.F("path", dest))
	return dest, nil
}

// RawURL builds <gitUrl>/<branch>/<folder>[/<repoPath>]/<folder>.yaml
func (s *StandardComponentSource) RawURL(folder string) string {
	parts := []string{strings.TrimRight(s.download.GitURL, "/"), s.download.GitBranch, folder}
	if p := strings.Trim(s.download.RepoPath, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, folder+".yaml")
	return strings.Join(parts, "/")
}

func (s *StandardComponentSource) findLocal(componentName string) (string, bool) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), componentName) && strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(s.dir, names[0]), true
}
