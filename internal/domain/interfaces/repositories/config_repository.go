// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
)

// ConfigRepository loads the orchestrator configuration
type ConfigRepository interface {
	Load(ctx context.Context) (*entities.RunConfig, error)
}

// ComponentSpecRepository parses component specifications
type ComponentSpecRepository interface {
	GetSpecification(ctx context.Context, path string) (*entities.ComponentSpecification, error)
}

// ArtifactIndexRepository loads the artifact index
type ArtifactIndexRepository interface {
	GetIndex(ctx context.Context, path string) (*entities.ArtifactIndex, error)
}
