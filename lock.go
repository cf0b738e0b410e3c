// FILE: lixenwraith/yacman/lock.go
package yacman

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LockPrefix is prepended to the target's base name to form the marker file name.
const LockPrefix = "lock."

// MarkerPath returns the lock marker location for a target file.
// The marker lives next to the target: <dir>/lock.<base>.
func MarkerPath(target string) string {
	return filepath.Join(filepath.Dir(target), LockPrefix+filepath.Base(target))
}

// TryCreateMarker atomically creates the marker file at markerPath.
// It returns true if this call created the marker and false if it already existed.
// Exclusivity comes from O_EXCL, so two concurrent callers never both get true.
func TryCreateMarker(fs afero.Fs, markerPath string) (bool, error) {
	f, err := fs.OpenFile(markerPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create lock marker '%s': %w", markerPath, err)
	}
	if err := f.Close(); err != nil {
		return true, fmt.Errorf("failed to close lock marker '%s': %w", markerPath, err)
	}
	return true, nil
}

// MarkerExists reports whether a marker is present.
// Only used for polling and status, never to decide ownership.
func MarkerExists(fs afero.Fs, markerPath string) bool {
	_, err := fs.Stat(markerPath)
	return err == nil
}

// RemoveMarker deletes the marker. An absent marker is not an error.
func RemoveMarker(fs afero.Fs, markerPath string) error {
	if err := fs.Remove(markerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock marker '%s': %w", markerPath, err)
	}
	return nil
}

// canonicalPath makes a target path absolute and clean, resolving symlinks in
// its parent directory when the directory exists. The base name is kept as
// given so a target that does not exist yet still maps to one marker.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path '%s': %w", path, err)
	}
	dir, base := filepath.Split(abs)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	return filepath.Join(dir, base), nil
}
