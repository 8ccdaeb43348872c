package gateways

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HelmManifestProvider reads deployment manifests with `helm get manifest`
type HelmManifestProvider struct {
	executor *ScriptExecutor
	binary   string
}

// NewHelmManifestProvider creates a provider using the helm binary on PATH
func NewHelmManifestProvider(executor *ScriptExecutor) *HelmManifestProvider {
	return &HelmManifestProvider{executor: executor, binary: "helm"}
}

// GetManifest returns the manifest of releaseName in namespace
func (h *HelmManifestProvider) GetManifest(ctx context.Context, releaseName, namespace string) (string, error) {
	if releaseName == "" {
		return "", fmt.Errorf("release name is empty")
	}
	result := h.executor.Execute(ctx, ExecuteConfig{
		Command:     h.binary,
		Args:        []string{"get", "manifest", releaseName, "-n", namespace},
		Timeout:     2 * time.Minute,
		Description: "helm get manifest",
	})
	if !result.Success {
		return "", fmt.Errorf("helm get manifest %s (exit %d): %s", releaseName, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return result.Stdout, nil
}
