package gateways

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// withWorkingDir runs fn with the process working directory set to dir and
// restores the previous directory on every exit path, including panics
func withWorkingDir(dir string, fn func() error) (err error) {
	orig, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to read working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("failed to enter %s: %w", dir, err)
	}
	defer func() {
		if restoreErr := os.Chdir(orig); restoreErr != nil && err == nil {
			err = fmt.Errorf("failed to restore working directory: %w", restoreErr)
		}
	}()
	return fn()
}

// moveFile renames src to dst, falling back to copy and delete across devices
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	//nolint:gosec // G304: src is a CTK output file inside the artifact directory
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	//nolint:gosec // G304: dst is inside the results area
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
