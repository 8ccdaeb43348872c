package gateways

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Test creating a new GitHub gateway
func TestNewHTTPGitHubGateway(t *testing.T) {
	gateway := NewHTTPGitHubGateway("", "test-token", true)

	if gateway == nil {
		t.Fatal("NewHTTPGitHubGateway returned nil")
	}
	if gateway.token != "test-token" {
		t.Errorf("Token = %s, want test-token", gateway.token)
	}
	if gateway.apiBaseURL != "https://api.github.com" {
		t.Errorf("apiBaseURL = %s, want default", gateway.apiBaseURL)
	}

	enterprise := NewHTTPGitHubGateway("https://git.example.test/api/v3/", "", false)
	if enterprise.apiBaseURL != "https://git.example.test/api/v3" {
		t.Errorf("apiBaseURL = %s, want trailing slash trimmed", enterprise.apiBaseURL)
	}
}

// Test listing repository contents
func TestGitHubGateway_ListContents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/tmforum-oda/oda-component-definitions/contents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "main" {
			t.Errorf("ref = %s, want main", r.URL.Query().Get("ref"))
		}
		if r.Header.Get("Authorization") != "token test-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`[
			{"name": "TMFC028-PartyManagement", "path": "TMFC028-PartyManagement", "type": "dir"},
			{"name": "README.md", "path": "README.md", "type": "file"}
		]`))
	}))
	defer server.Close()

	gateway := NewHTTPGitHubGateway(server.URL, "test-token", true)
	items, err := gateway.ListContents(context.Background(), "tmforum-oda", "oda-component-definitions", "main")
	if err != nil {
		t.Fatalf("ListContents failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Name != "TMFC028-PartyManagement" || items[0].Type != "dir" {
		t.Errorf("items[0] = %+v", items[0])
	}
}

// Test list contents with API error
func TestGitHubGateway_ListContents_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	gateway := NewHTTPGitHubGateway(server.URL, "", true)
	if _, err := gateway.ListContents(context.Background(), "o", "r", ""); err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
}

// Test an exhausted rate limit is reported without retrying
func TestGitHubGateway_ListContents_RateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	gateway := NewHTTPGitHubGateway(server.URL, "", true)
	if _, err := gateway.ListContents(context.Background(), "o", "r", ""); err == nil {
		t.Fatal("Expected rate limit error, got nil")
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1", calls)
	}
}

// Test downloading a raw file
func TestGitHubGateway_FetchRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("apiVersion: oda.tmforum.org/v1\n"))
	}))
	defer server.Close()

	gateway := NewHTTPGitHubGateway(server.URL, "", true)
	data, err := gateway.FetchRaw(context.Background(), server.URL+"/spec.yaml")
	if err != nil {
		t.Fatalf("FetchRaw failed: %v", err)
	}
	if string(data) != "apiVersion: oda.tmforum.org/v1\n" {
		t.Errorf("FetchRaw = %q", data)
	}

	if _, err := gateway.FetchRaw(context.Background(), server.URL+"/missing.yaml"); err == nil {
		t.Error("Expected error for 404, got nil")
	}
}

// Test an oversized raw file is rejected instead of truncated
func TestGitHubGateway_FetchRaw_TooLarge(t *testing.T) {
	body := "apiVersion: oda.tmforum.org/v1\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	gateway := NewHTTPGitHubGateway(server.URL, "", true)
	gateway.maxRawSize = int64(len(body))
	if _, err := gateway.FetchRaw(context.Background(), server.URL+"/spec.yaml"); err != nil {
		t.Fatalf("FetchRaw at the limit failed: %v", err)
	}

	gateway.maxRawSize = int64(len(body)) - 1
	data, err := gateway.FetchRaw(context.Background(), server.URL+"/spec.yaml")
	if err == nil {
		t.Fatalf("FetchRaw should fail past the limit, got %q", data)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("FetchRaw error = %v", err)
	}
}

// Test context cancellation
func TestGitHubGateway_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	gateway := NewHTTPGitHubGateway(server.URL, "", true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	if _, err := gateway.ListContents(ctx, "o", "r", ""); err == nil {
		t.Fatal("Expected error for canceled context, got nil")
	}
}
