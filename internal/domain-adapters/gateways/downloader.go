package gateways

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
)

// maxExtractedFileSize caps a single extracted file (decompression bomb guard)
const maxExtractedFileSize = 1 << 30

// Downloader handles downloading and extracting CTK archives
type Downloader struct {
	http   *retryingClient
	logger interfaces.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(sslVerify bool, logger interfaces.Logger) *Downloader {
	return &Downloader{
		http:   newRetryingClient(5*time.Minute, sslVerify), // Long timeout for large downloads
		logger: interfaces.OrNoOp(logger),
	}
}

// DownloadResult describes a completed download
type DownloadResult struct {
	Path   string
	Bytes  int64
	SHA256 string
}

// DownloadFile downloads url to dest, optionally sending an Authorization token
func (d *Downloader) DownloadFile(ctx context.Context, url, dest, token string) (*DownloadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := d.http.do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	// dest is only replaced once the whole body is on disk
	out, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	partial := out.Name()

	h := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, h), resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(partial)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return nil, fmt.Errorf("failed to move download into place: %w", err)
	}

	result := &DownloadResult{Path: dest, Bytes: written, SHA256: hex.EncodeToString(h.Sum(nil))}
	d.logger.Info("downloaded file",
		interfaces.F("file", filepath.Base(dest)),
		interfaces.F("bytes", written),
		interfaces.F("sha256", result.SHA256))
	return result, nil
}

// ExtractZip extracts a zip archive into destDir and returns the top-level
// entries it created
func (d *Downloader) ExtractZip(zipPath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	//nolint:errcheck // Defer close on read-only archive
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}
	cleanDest := filepath.Clean(destDir) + string(os.PathSeparator)

	topLevel := make(map[string]struct{})
	var order []string
	for _, f := range zr.File {
		//nolint:gosec // G305: Path traversal validated by HasPrefix check below
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(filepath.Clean(target)+string(os.PathSeparator), cleanDest) {
			return nil, fmt.Errorf("invalid file path in archive: %s", f.Name)
		}

		top := strings.SplitN(filepath.ToSlash(filepath.Clean(f.Name)), "/", 2)[0]
		if _, seen := topLevel[top]; !seen && top != "." {
			topLevel[top] = struct{}{}
			order = append(order, top)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0750); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if err := extractZipFile(f, target); err != nil {
			return nil, err
		}
	}

	d.logger.Debug("extracted archive", interfaces.F("archive", filepath.Base(zipPath)), interfaces.F("dest", destDir))
	return order, nil
}

func extractZipFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close on archive entry reader
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	//nolint:gosec // G304: target validated against destination directory
	out, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(out, io.LimitReader(rc, maxExtractedFileSize)); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// FetchIndex downloads the remote artifact index to dest
func (d *Downloader) FetchIndex(ctx context.Context, url, token, dest string) error {
	if _, err := d.DownloadFile(ctx, url, dest, token); err != nil {
		return fmt.Errorf("failed to download artifact index: %w", err)
	}
	return nil
}
