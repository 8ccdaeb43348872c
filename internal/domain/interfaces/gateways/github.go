// Package gateways defines interfaces for external service adapters.
package gateways

import "context"

// RepoContent is one entry of a GitHub repository contents listing
type RepoContent struct {
	Name string
	Path string
	Type string // "dir" or "file"
}

// GitHubGateway defines the GitHub operations used to fetch standard component specifications
type GitHubGateway interface {
	// ListContents lists the root of a repository at a ref
	ListContents(ctx context.Context, owner, repo, ref string) ([]RepoContent, error)

	// FetchRaw downloads a raw file
	FetchRaw(ctx context.Context, rawURL string) ([]byte, error)
}
