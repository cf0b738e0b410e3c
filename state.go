// FILE: lixenwraith/yacman/state.go
package yacman

import (
	"errors"
	"fmt"
)

// AccessState is a handle's posture toward its Target Path.
type AccessState int

const (
	// StateNoPath is an in-memory handle without a Target Path
	StateNoPath AccessState = iota
	// StateReadUnlocked has a Target Path and holds no marker
	StateReadUnlocked
	// StateReadLocked holds the marker only while construction reads the file
	StateReadLocked
	// StateWriteHolding owns the marker for its Target Path
	StateWriteHolding
)

func (s AccessState) String() string {
	switch s {
	case StateNoPath:
		return "no-path"
	case StateReadUnlocked:
		return "read-unlocked"
	case StateReadLocked:
		return "read-locked"
	case StateWriteHolding:
		return "write-holding"
	default:
		return fmt.Sprintf("AccessState(%d)", int(s))
	}
}

// State returns the current access state. StateReadLocked is never
// observable after construction.
func (h *Handle) State() AccessState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stateLocked()
}

func (h *Handle) stateLocked() AccessState {
	switch {
	case h.meta.path == "":
		return StateNoPath
	case h.meta.writable:
		return StateWriteHolding
	default:
		return StateReadUnlocked
	}
}

// MakeWritable acquires the marker for path (or the bound path when path is
// empty) and re-reads the file, discarding unsaved in-memory edits so the
// handle starts from the latest committed version. A marker held for a
// previous path is released only after the new one is held.
//
// It returns false without side effects when the handle already holds the
// marker for the requested path. On failure the handle is unchanged.
func (h *Handle) MakeWritable(path string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.makeWritableLocked(path)
}

func (h *Handle) makeWritableLocked(path string) (bool, error) {
	target := h.meta.path
	if path != "" {
		var err error
		if target, err = canonicalPath(path); err != nil {
			return false, err
		}
	}
	if target == "" {
		return false, fmt.Errorf("%w: cannot make handle writable", ErrNoPath)
	}

	if h.meta.writable && target == h.meta.path {
		h.logger.Debug("handle already writable", "path", target)
		return false, nil
	}

	if err := h.claimForWrite(target); err != nil {
		return false, err
	}

	tree, format, digest, exists, err := h.readFile(target)
	if err != nil {
		return false, errors.Join(err, h.locker.Release(target))
	}

	previous, previousHeld := h.meta.path, h.meta.writable

	// Nothing committed yet: the in-memory tree is the only version there is.
	if exists {
		h.data = tree
		h.format = format
	}
	h.digest = digest
	h.meta.path = target
	h.meta.writable = true

	h.logger.Debug("handle made writable", "path", target, "rereads", exists)

	if previousHeld && previous != target {
		if err := h.locker.Release(previous); err != nil {
			return true, err
		}
	}
	return true, nil
}

// MakeReadOnly releases the marker if the handle holds one. It never writes.
// It returns true when a marker was released and false when there was
// nothing to release. A handle without a Target Path returns ErrNoPath.
func (h *Handle) MakeReadOnly() (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.meta.path == "" {
		return false, fmt.Errorf("%w: nothing to unlock", ErrNoPath)
	}
	if !h.meta.writable {
		return false, nil
	}

	if err := h.locker.Release(h.meta.path); err != nil {
		return false, err
	}
	h.meta.writable = false
	return true, nil
}

// Close releases any marker the handle holds. It is safe to call more than
// once and on in-memory handles.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.meta.path == "" || !h.meta.writable {
		return nil
	}
	if err := h.locker.Release(h.meta.path); err != nil {
		return err
	}
	h.meta.writable = false
	return nil
}
