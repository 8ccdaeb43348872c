package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ochairo/ctkrunner/internal/domain/interfaces/gateways"
)

// maxRawFileSize caps a downloaded specification file
const maxRawFileSize = 16 << 20

// HTTPGitHubGateway implements GitHubGateway using standard HTTP client
type HTTPGitHubGateway struct {
	http       *retryingClient
	apiBaseURL string
	token      string
	maxRawSize int64
}

// NewHTTPGitHubGateway creates a new GitHub gateway with HTTP client
func NewHTTPGitHubGateway(apiBaseURL, token string, sslVerify bool) *HTTPGitHubGateway {
	if apiBaseURL == "" {
		apiBaseURL = "https://api.github.com"
	}
	return &HTTPGitHubGateway{
		http:       newRetryingClient(60*time.Second, sslVerify),
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		token:      token,
		maxRawSize: maxRawFileSize,
	}
}

// githubContent represents one entry of the GitHub contents API
type githubContent struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// ListContents lists the repository root at ref
func (g *HTTPGitHubGateway) ListContents(ctx context.Context, owner, repo, ref string) ([]gateways.RepoContent, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents", g.apiBaseURL, url.PathEscape(owner), url.PathEscape(repo))
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}

	resp, err := g.http.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list contents: HTTP %d", resp.StatusCode)
	}

	var items []githubContent
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := make([]gateways.RepoContent, 0, len(items))
	for _, it := range items {
		out = append(out, gateways.RepoContent{Name: it.Name, Path: it.Path, Type: it.Type})
	}
	return out, nil
}

// FetchRaw downloads a raw file
func (g *HTTPGitHubGateway) FetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}

	resp, err := g.http.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: HTTP %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxRawSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if int64(len(data)) > g.maxRawSize {
		return nil, fmt.Errorf("file %s exceeds %d bytes", rawURL, g.maxRawSize)
	}
	return data, nil
}
