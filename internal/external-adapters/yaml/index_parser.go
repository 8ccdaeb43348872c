package yaml

import (
	"context"
	"fmt"
	"os"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

type yamlIndexEntry struct {
	CTK string `yaml:"ctk"`
}

// IndexParser parses the artifact index (`name: {ctk: url}`), keeping document order
type IndexParser struct{}

// NewIndexParser creates a new index parser
func NewIndexParser() *IndexParser {
	return &IndexParser{}
}

// GetIndex implements repositories.ArtifactIndexRepository
func (p *IndexParser) GetIndex(_ context.Context, path string) (*entities.ArtifactIndex, error) {
	//nolint:gosec // G304: path is the configured artifact index
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact index %s: %w", path, err)
	}
	return p.Parse(data)
}

// Parse decodes an index document. The top level must be a mapping; values
// without a ctk URL are skipped.
func (p *IndexParser) Parse(data []byte) (*entities.ArtifactIndex, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse artifact index: %w", err)
	}

	index := &entities.ArtifactIndex{}
	if root.Kind == 0 {
		return index, nil
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("artifact index must be a mapping")
	}

	mapping := root.Content[0]
	seen := make(map[string]bool, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		name := mapping.Content[i].Value
		var entry yamlIndexEntry
		if err := mapping.Content[i+1].Decode(&entry); err != nil || entry.CTK == "" {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		index.Entries = append(index.Entries, entities.IndexEntry{Name: name, DownloadURL: entry.CTK})
	}
	return index, nil
}
