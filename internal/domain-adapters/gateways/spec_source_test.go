package gateways

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces/gateways"
)

type fakeGitHub struct {
	contents []gateways.RepoContent
	files    map[string][]byte
	listErr  error
	listed   int
	fetched  []string
}

func (f *fakeGitHub) ListContents(_ context.Context, _, _, _ string) ([]gateways.RepoContent, error) {
	f.listed++
	return f.contents, f.listErr
}

func (f *fakeGitHub) FetchRaw(_ context.Context, rawURL string) ([]byte, error) {
	f.fetched = append(f.fetched, rawURL)
	data, ok := f.files[rawURL]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func testDownload() entities.StandardComponentDownload {
	return entities.StandardComponentDownload{
		RepoOwner: "tmforum-oda",
		RepoName:  "oda-component-definitions",
		GitBranch: "main",
		RepoPath:  "specification",
		GitURL:    "https://raw.example.test/tmforum-oda/oda-component-definitions/",
	}
}

func TestStandardComponentSource_RawURL(t *testing.T) {
	s := NewStandardComponentSource(t.TempDir(), testDownload(), nil, nil)
	want := "https://raw.example.test/tmforum-oda/oda-component-definitions/main/TMFC028-PartyManagement/specification/TMFC028-PartyManagement.yaml"
	if got := s.RawURL("TMFC028-PartyManagement"); got != want {
		t.Errorf("RawURL() = %s, want %s", got, want)
	}

	d := testDownload()
	d.RepoPath = ""
	s = NewStandardComponentSource(t.TempDir(), d, nil, nil)
	want = "https://raw.example.test/tmforum-oda/oda-component-definitions/main/X-Y/X-Y.yaml"
	if got := s.RawURL("X-Y"); got != want {
		t.Errorf("RawURL() = %s, want %s", got, want)
	}
}

func TestStandardComponentSource_LocalFileWins(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"TMFC028-PartyManagement.yaml", "TMFC028-Old.yaml.bak", "TMFC001-Catalog.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	gh := &fakeGitHub{}

	path, err := NewStandardComponentSource(dir, testDownload(), gh, nil).Locate(context.Background(), "TMFC028")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if path != filepath.Join(dir, "TMFC028-PartyManagement.yaml") {
		t.Errorf("Locate() = %s", path)
	}
	if gh.listed != 0 {
		t.Error("repository should not be queried when a local file exists")
	}
}

func TestStandardComponentSource_DownloadsFromRepository(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "standard-components")
	s := NewStandardComponentSource(dir, testDownload(), nil, nil)
	rawURL := s.RawURL("TMFC028-PartyManagement")
	gh := &fakeGitHub{
		contents: []gateways.RepoContent{
			{Name: "TMFC028.md", Type: "file"},
			{Name: "TMFC0280-Other", Type: "dir"},
			{Name: "TMFC028-PartyManagement", Type: "dir"},
		},
		files: map[string][]byte{rawURL: []byte("kind: Component\n")},
	}
	s = NewStandardComponentSource(dir, testDownload(), gh, nil)

	path, err := s.Locate(context.Background(), "TMFC028")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if path != filepath.Join(dir, "TMFC028-PartyManagement.yaml") {
		t.Errorf("Locate() = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "kind: Component\n" {
		t.Errorf("saved content = %q", data)
	}
	if len(gh.fetched) != 1 || gh.fetched[0] != rawURL {
		t.Errorf("fetched = %v, want [%s]", gh.fetched, rawURL)
	}
}

func TestStandardComponentSource_NoMatchingFolder(t *testing.T) {
	gh := &fakeGitHub{contents: []gateways.RepoContent{{Name: "TMFC001-Catalog", Type: "dir"}}}

	path, err := NewStandardComponentSource(t.TempDir(), testDownload(), gh, nil).Locate(context.Background(), "TMFC028")
	if err != nil || path != "" {
		t.Errorf("Locate() = (%q, %v), want empty and no error", path, err)
	}
}

func TestStandardComponentSource_NotConfigured(t *testing.T) {
	path, err := NewStandardComponentSource(t.TempDir(), entities.StandardComponentDownload{}, &fakeGitHub{}, nil).
		Locate(context.Background(), "TMFC028")
	if err != nil || path != "" {
		t.Errorf("Locate() = (%q, %v), want empty and no error", path, err)
	}
}

func TestStandardComponentSource_ListError(t *testing.T) {
	gh := &fakeGitHub{listErr: errors.New("boom")}
	if _, err := NewStandardComponentSource(t.TempDir(), testDownload(), gh, nil).Locate(context.Background(), "TMFC028"); err == nil {
		t.Error("Locate() should return the listing error")
	}
}
