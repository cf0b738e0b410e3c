// FILE: lixenwraith/yacman/write.go
package yacman

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Write serializes the tree to path, or to the bound path when none is given.
//
// Validation (when WriteValidate is set) runs first; a failure leaves the
// file, the tree and the lock state untouched. Writing without holding the
// marker for the destination only logs a warning: the handle then takes
// that marker, drops any marker held for another path, and binds the
// destination. When another process holds the destination marker past
// WaitMax the conflict is logged and the file is written anyway, leaving
// the handle's lock state as it was; StrictWrite turns that case into
// ErrLockTimeout. A failed write never changes the binding or lock state.
func (h *Handle) Write(path ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dest string
	if len(path) > 0 {
		dest = path[0]
	}
	return h.writeLocked(dest)
}

func (h *Handle) writeLocked(path string) error {
	target := h.meta.path
	if path != "" {
		var err error
		if target, err = canonicalPath(path); err != nil {
			return err
		}
	}
	if target == "" {
		return fmt.Errorf("%w: write needs a file path", ErrNoPath)
	}

	if h.opts.WriteValidate && h.schema != nil {
		if err := h.schema.Validate(h.data); err != nil {
			return err
		}
	}

	format := h.formatFor(target)
	out, err := serializeDocument(h.data, format)
	if err != nil {
		return err
	}

	// claimed is set only when this call created the destination marker
	claimed := false
	if !h.meta.writable || h.meta.path != target {
		attrs := []any{"path", target, "state", h.stateLocked()}
		if h.meta.writable {
			h.logger.Warn("writing to a path whose lock is not held by this handle",
				append(attrs, "held_path", h.meta.path)...)
		} else {
			h.logger.Warn("writing without holding the lock", attrs...)
		}
		if target == h.meta.path {
			if stale, _ := h.staleLocked(); stale {
				h.logger.Warn("overwriting changes made by another process since last read", "path", target)
			}
		}

		err := h.claimForWrite(target)
		switch {
		case err == nil:
			claimed = true
		case errors.Is(err, ErrLockTimeout) && !h.opts.StrictWrite:
			h.logger.Warn("lock held by another process, writing anyway", "path", target, "error", err)
		default:
			return err
		}
	}

	if err := atomicWriteFile(h.fs, target, out); err != nil {
		if claimed {
			return errors.Join(err, h.locker.Release(target))
		}
		return err
	}

	var release string
	if claimed {
		if h.meta.writable && h.meta.path != "" {
			release = h.meta.path
		}
		h.meta.path = target
		h.meta.writable = true
	}
	if target == h.meta.path {
		h.format = format
		h.digest = digestOf(out)
	}
	h.logger.Debug("config written", "path", target, "format", format, "bytes", len(out))

	if release != "" {
		return h.locker.Release(release)
	}
	return nil
}

// claimForWrite creates the directory for target and takes its marker.
func (h *Handle) claimForWrite(target string) error {
	dir := filepath.Dir(target)
	if err := h.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory '%s': %w", dir, err)
	}
	return h.locker.Acquire(h.ctx, target, h.opts.WaitMax)
}

// formatFor picks the codec for writing target.
func (h *Handle) formatFor(target string) Format {
	if h.opts.Format != "" && h.opts.Format != FormatAuto {
		return h.opts.Format
	}
	if f := detectFileFormat(target); f != "" {
		return f
	}
	if target == h.meta.path && h.format != "" {
		return h.format
	}
	return FormatYAML
}

// atomicWriteFile writes data to a temporary file in the target directory
// and renames it over path.
func atomicWriteFile(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := afero.TempFile(fs, dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary config file in '%s': %w", dir, err)
	}

	tempPath := tempFile.Name()
	renamed := false
	defer func() {
		if !renamed {
			fs.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temp config file '%s': %w", tempPath, err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temp config file '%s': %w", tempPath, err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp config file '%s': %w", tempPath, err)
	}

	if err := fs.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on temporary config file '%s': %w", tempPath, err)
	}

	if err := fs.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file '%s' to '%s': %w", tempPath, path, err)
	}
	renamed = true

	return nil
}
