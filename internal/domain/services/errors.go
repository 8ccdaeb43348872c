package services

import (
	"errors"
	"fmt"
)

// ErrFatal marks failures that abort the whole run
var ErrFatal = errors.New("fatal")

// Sentinel errors
var (
	ErrUnsupportedPlatform = fmt.Errorf("%w: unsupported platform", ErrFatal)
	ErrManifestUnavailable = fmt.Errorf("%w: deployment manifest unavailable", ErrFatal)
	ErrArtifactNotFound    = errors.New("no matching CTK in artifact index")
	ErrArtifactMissing     = errors.New("artifact directory does not exist")
	ErrNoConfig            = errors.New("artifact has no config.json at its root")
)

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
