//go:build !windows

package gateways

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake")
	//nolint:gosec // G306: test binary must be executable
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHelmManifestProvider_GetManifest(t *testing.T) {
	h := NewHelmManifestProvider(NewScriptExecutor())
	h.binary = fakeBinary(t, `echo "args: $*"`)

	manifest, err := h.GetManifest(context.Background(), "ctk-party", "components")
	if err != nil {
		t.Fatalf("GetManifest() error = %v", err)
	}
	if strings.TrimSpace(manifest) != "args: get manifest ctk-party -n components" {
		t.Errorf("GetManifest() = %q", manifest)
	}
}

func TestHelmManifestProvider_Failure(t *testing.T) {
	h := NewHelmManifestProvider(NewScriptExecutor())
	h.binary = fakeBinary(t, "echo 'Error: release: not found' >&2\nexit 1\n")

	_, err := h.GetManifest(context.Background(), "missing", "components")
	if err == nil || !strings.Contains(err.Error(), "release: not found") {
		t.Errorf("GetManifest() error = %v, want helm stderr", err)
	}

	if _, err := h.GetManifest(context.Background(), "", "components"); err == nil {
		t.Error("GetManifest() should reject an empty release name")
	}
}

func TestNPMReportRenderer_Render(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	r := NewNPMReportRenderer(NewScriptExecutor(), &out)
	r.steps = []string{"echo installing > step1.txt", "echo rendering"}

	if err := r.Render(context.Background(), dir); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "step1.txt")); err != nil {
		t.Errorf("first step did not run in source dir: %v", err)
	}
	if !strings.Contains(out.String(), "rendering") {
		t.Errorf("output = %q, want step output", out.String())
	}
}

func TestNPMReportRenderer_StopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	r := NewNPMReportRenderer(NewScriptExecutor(), nil)
	r.steps = []string{"exit 3", "touch second.txt"}

	if err := r.Render(context.Background(), dir); err == nil {
		t.Fatal("Render() should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "second.txt")); !os.IsNotExist(err) {
		t.Error("steps after a failure should not run")
	}
}
