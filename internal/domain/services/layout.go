package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
)

// LayoutState is the normalization state of an artifact directory, derived from
// what is on disk
type LayoutState int

// Layout states
const (
	LayoutUnresolved LayoutState = iota
	LayoutNestedVendor
	LayoutCanonical
)

func (s LayoutState) String() string {
	switch s {
	case LayoutUnresolved:
		return "unresolved"
	case LayoutNestedVendor:
		return "nested-vendor"
	case LayoutCanonical:
		return "canonical"
	default:
		return fmt.Sprintf("LayoutState(%d)", int(s))
	}
}

// Well-known names inside an artifact directory
const (
	ConfigFileName   = "config.json"
	NestedCTKDirName = "CTK"
	ReferenceDirName = "RI"
	stagingDirName   = "_temp_ctk"
)

// maxNestingDepth bounds how many vendor wrapper levels are lifted
const maxNestingDepth = 4

// DetectLayout inspects an artifact directory. Only a directory with config.json
// at its root is canonical.
func DetectLayout(dir string) LayoutState {
	if !isDir(dir) {
		return LayoutUnresolved
	}
	if isDir(filepath.Join(dir, NestedCTKDirName)) && isFile(filepath.Join(dir, NestedCTKDirName, ConfigFileName)) {
		return LayoutNestedVendor
	}
	if isFile(filepath.Join(dir, ConfigFileName)) {
		return LayoutCanonical
	}
	return LayoutUnresolved
}

// LayoutNormalizer rewrites artifact directories into the canonical layout
type LayoutNormalizer struct {
	logger interfaces.Logger
}

// NewLayoutNormalizer creates a normalizer
func NewLayoutNormalizer(logger interfaces.Logger) *LayoutNormalizer {
	return &LayoutNormalizer{logger: interfaces.OrNoOp(logger)}
}

// Normalize lifts nested CTK/ content to the directory root and removes RI/.
// It is a no-op on a directory that is already canonical, and fails without
// touching leftovers when no config.json ends up at the root.
func (n *LayoutNormalizer) Normalize(dir string) (LayoutState, error) {
	if !isDir(dir) {
		return LayoutUnresolved, fmt.Errorf("%w: %s", ErrArtifactMissing, dir)
	}
	state := DetectLayout(dir)

	// Left behind by an interrupted run
	staging := filepath.Join(dir, stagingDirName)
	if isDir(staging) {
		if err := os.RemoveAll(staging); err != nil {
			return state, fmt.Errorf("failed to remove stale staging directory: %w", err)
		}
	}

	for depth := 0; state == LayoutNestedVendor; depth++ {
		if depth == maxNestingDepth {
			return state, fmt.Errorf("CTK nested more than %d levels deep in %s", maxNestingDepth, dir)
		}
		n.logger.Info("found nested CTK structure", interfaces.F("path", filepath.Join(dir, NestedCTKDirName)))
		if err := liftNested(dir); err != nil {
			return state, err
		}
		state = DetectLayout(dir)
	}
	if state != LayoutCanonical {
		return state, fmt.Errorf("%w: %s", ErrNoConfig, dir)
	}
	n.logger.Debug("CTK directory structure is normalized", interfaces.F("path", dir))

	for _, name := range []string{ReferenceDirName, NestedCTKDirName} {
		p := filepath.Join(dir, name)
		if !isDir(p) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return state, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		n.logger.Debug("removed leftover directory", interfaces.F("path", p))
	}

	return LayoutCanonical, nil
}

// liftNested moves dir/CTK aside and lifts each of its children into dir,
// replacing same-named entries.
func liftNested(dir string) error {
	nested := filepath.Join(dir, NestedCTKDirName)
	staging := filepath.Join(dir, stagingDirName)
	if err := os.Rename(nested, staging); err != nil {
		return fmt.Errorf("failed to stage nested CTK: %w", err)
	}

	entries, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("failed to read staged CTK: %w", err)
	}
	for _, entry := range entries {
		src := filepath.Join(staging, entry.Name())
		dst := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to replace %s: %w", dst, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("failed to move %s: %w", entry.Name(), err)
		}
	}

	if err := os.Remove(staging); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
