package gateways

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
	"github.com/ochairo/ctkrunner/internal/domain/services"
)

// GenericCTKDirName is the top-level folder most vendors put in their archive
const GenericCTKDirName = "CTK"

// FetchRequest identifies one artifact to materialize
type FetchRequest struct {
	Identifier    string
	CanonicalName string
	DownloadURL   string
}

// FetchResult describes the canonical directory after a fetch
type FetchResult struct {
	Path     string
	CacheHit bool
	Download *DownloadResult
}

// ArtifactFetcher downloads and extracts CTK archives into the artifact root
type ArtifactFetcher struct {
	root       string
	downloader *Downloader
	logger     interfaces.Logger
}

// NewArtifactFetcher creates a fetcher writing below root
func NewArtifactFetcher(root string, downloader *Downloader, logger interfaces.Logger) *ArtifactFetcher {
	return &ArtifactFetcher{root: root, downloader: downloader, logger: interfaces.OrNoOp(logger)}
}

// Root returns the artifact root directory
func (f *ArtifactFetcher) Root() string {
	return f.root
}

// Fetch ensures root/<CanonicalName> exists. An existing directory is a cache hit
// and nothing is downloaded.
func (f *ArtifactFetcher) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if req.CanonicalName == "" || req.DownloadURL == "" {
		return nil, fmt.Errorf("fetch request for %q is missing name or URL", req.Identifier)
	}
	dest := filepath.Join(f.root, req.CanonicalName)
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		f.logger.Info("CTK already present", interfaces.F("artifact", req.CanonicalName))
		return &FetchResult{Path: dest, CacheHit: true}, nil
	}

	if err := os.MkdirAll(f.root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}

	tmp, err := os.CreateTemp("", req.CanonicalName+"-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	zipPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		_ = os.Remove(zipPath)
	}()

	dl, err := f.downloader.DownloadFile(ctx, req.DownloadURL, zipPath, "")
	if err != nil {
		return nil, fmt.Errorf("download of %s failed: %w", req.CanonicalName, err)
	}

	// A killed run can leave a half-extracted generic folder, or a file or link at dest
	f.removeRemnant(filepath.Join(f.root, GenericCTKDirName))
	f.removeRemnant(dest)

	existing, err := f.entries()
	if err != nil {
		return nil, err
	}
	extracted, err := f.downloader.ExtractZip(zipPath, f.root)
	if err != nil {
		return nil, fmt.Errorf("extraction of %s failed: %w", req.CanonicalName, err)
	}

	// Archive already uses the canonical folder name
	if info, err := os.Stat(dest); err != nil || !info.IsDir() {
		if err := f.rename(req.Identifier, extracted, filepath.Join(f.root, GenericCTKDirName), dest); err != nil {
			return nil, err
		}
	}
	f.removeExtras(extracted, existing, dest)
	f.logger.Info("CTK extracted", interfaces.F("artifact", req.CanonicalName), interfaces.F("path", dest))
	return &FetchResult{Path: dest, Download: dl}, nil
}

// Discard deletes the canonical directory of an artifact
func (f *ArtifactFetcher) Discard(artifact *entities.Artifact) error {
	if artifact == nil || artifact.CanonicalName == "" {
		return nil
	}
	dest := filepath.Join(f.root, artifact.CanonicalName)
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to discard %s: %w", artifact.CanonicalName, err)
	}
	f.logger.Info("discarded CTK", interfaces.F("artifact", artifact.CanonicalName))
	return nil
}

// entries lists the names currently in the artifact root
func (f *ArtifactFetcher) entries() (map[string]struct{}, error) {
	list, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact root: %w", err)
	}
	names := make(map[string]struct{}, len(list))
	for _, e := range list {
		names[e.Name()] = struct{}{}
	}
	return names, nil
}

// removeExtras deletes top-level archive entries that were not moved to dest
// and did not exist before extraction. Best-effort.
func (f *ArtifactFetcher) removeExtras(extracted []string, existing map[string]struct{}, dest string) {
	for _, name := range extracted {
		if _, ok := existing[name]; ok {
			continue
		}
		p := filepath.Join(f.root, name)
		if p == dest {
			continue
		}
		f.removeRemnant(p)
	}
}

// removeRemnant deletes anything left at dest by an earlier failed run. Best-effort.
func (f *ArtifactFetcher) removeRemnant(dest string) {
	if _, err := os.Lstat(dest); errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err := os.RemoveAll(dest); err != nil {
		f.logger.Warn("failed to delete stale artifact remnant", interfaces.F("path", dest), interfaces.Err(err))
		return
	}
	f.logger.Debug("removed stale artifact remnant", interfaces.F("path", dest))
}

// rename moves the generic folder to dest. When the generic folder is absent it
// retries once against an extracted sibling directory whose name contains the
// identifier.
func (f *ArtifactFetcher) rename(identifier string, extracted []string, src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to rename %s to %s: %w", filepath.Base(src), filepath.Base(dest), err)
	}

	candidate, ok := f.findSibling(identifier, extracted, dest)
	if !ok {
		return fmt.Errorf("extracted archive has no %s folder and no folder matching %q", filepath.Base(src), identifier)
	}
	f.logger.Info("renaming vendor folder", interfaces.F("from", filepath.Base(candidate)), interfaces.F("to", filepath.Base(dest)))
	if err := os.Rename(candidate, dest); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", filepath.Base(candidate), filepath.Base(dest), err)
	}
	return nil
}

// findSibling returns the first extracted top-level directory whose name contains
// identifier, ignoring case. Directories that predate the extraction, such as
// other cached artifacts, are never candidates.
func (f *ArtifactFetcher) findSibling(identifier string, extracted []string, dest string) (string, bool) {
	if identifier == "" {
		return "", false
	}
	needle := strings.ToLower(identifier)
	for _, name := range extracted {
		p := filepath.Join(f.root, name)
		if p == dest {
			continue
		}
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			continue
		}
		if strings.Contains(strings.ToLower(name), needle) {
			return p, true
		}
	}
	return "", false
}

// Materialize fetches the artifact a resolution points at
func (f *ArtifactFetcher) Materialize(ctx context.Context, res services.Resolution) (*entities.Artifact, error) {
	fr, err := f.Fetch(ctx, FetchRequest{
		Identifier:    res.Identifier,
		CanonicalName: res.CanonicalName,
		DownloadURL:   res.DownloadURL,
	})
	if err != nil {
		return nil, err
	}
	artifact := &entities.Artifact{
		Identifier:    res.Identifier,
		CanonicalName: res.CanonicalName,
		Path:          fr.Path,
		Cached:        fr.CacheHit,
	}
	if fr.Download != nil {
		artifact.SHA256 = fr.Download.SHA256
	}
	return artifact, nil
}
