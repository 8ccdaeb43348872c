package gateways

import "context"

// ManifestProvider produces the deployment manifest of an installed release
type ManifestProvider interface {
	// GetManifest returns the rendered manifest for release in namespace
	GetManifest(ctx context.Context, releaseName, namespace string) (string, error)
}

// ReportRenderer renders the human-readable report from files already in the results area
type ReportRenderer interface {
	Render(ctx context.Context, sourceDir string) error
}

// SpecificationSource locates the standard component specification for a component
type SpecificationSource interface {
	// Locate returns a local path to the specification YAML, downloading it if needed.
	// An empty path with a nil error means the specification is not published.
	Locate(ctx context.Context, componentName string) (string, error)
}

// IndexSource fetches the remote artifact index into a local file
type IndexSource interface {
	FetchIndex(ctx context.Context, url, token, dest string) error
}
