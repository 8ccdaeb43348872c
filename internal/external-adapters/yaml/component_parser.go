// Package yaml provides YAML-based parsing of component specifications, artifact
// indexes and orchestrator configuration.
package yaml

import (
	"context"
	"fmt"
	"os"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlComponent represents the parts of a standard component document the runner reads
type yamlComponent struct {
	Metadata struct {
		Name string `yaml:"name"`
	} `yaml:"metadata"`
	Spec struct {
		CoreFunction struct {
			ExposedAPIs   []yamlAPI `yaml:"exposedAPIs"`
			DependentAPIs []yamlAPI `yaml:"dependentAPIs"`
		} `yaml:"coreFunction"`
		SecurityFunction struct {
			ExposedAPIs []yamlAPI `yaml:"exposedAPIs"`
		} `yaml:"securityFunction"`
	} `yaml:"spec"`
}

type yamlAPI struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
}

// ComponentParser parses standard component specification files
type ComponentParser struct{}

// NewComponentParser creates a new component parser
func NewComponentParser() *ComponentParser {
	return &ComponentParser{}
}

// GetSpecification implements repositories.ComponentSpecRepository
func (p *ComponentParser) GetSpecification(_ context.Context, path string) (*entities.ComponentSpecification, error) {
	return p.ParseFile(path)
}

// ParseFile parses a component specification file
func (p *ComponentParser) ParseFile(filePath string) (*entities.ComponentSpecification, error) {
	//nolint:gosec // G304: filePath is the located standard component specification
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a ComponentSpecification. Missing sections yield
// empty API lists; entries without an id are dropped.
func (p *ComponentParser) Parse(data []byte) (*entities.ComponentSpecification, error) {
	var doc yamlComponent
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &entities.ComponentSpecification{
		Name:          doc.Metadata.Name,
		ExposedAPIs:   convertAPIs(doc.Spec.CoreFunction.ExposedAPIs),
		DependentAPIs: convertAPIs(doc.Spec.CoreFunction.DependentAPIs),
		SecurityAPIs:  convertAPIs(doc.Spec.SecurityFunction.ExposedAPIs),
	}, nil
}

func convertAPIs(in []yamlAPI) []entities.APIRef {
	out := make([]entities.APIRef, 0, len(in))
	for _, api := range in {
		if api.ID == "" {
			continue
		}
		out = append(out, entities.APIRef{ID: api.ID, Name: api.Name, Required: api.Required})
	}
	return out
}
