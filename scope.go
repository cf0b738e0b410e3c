// FILE: lixenwraith/yacman/scope.go
package yacman

import (
	"errors"
	"fmt"
)

// Use runs fn against the handle and, if fn succeeds and the handle holds
// its marker, writes the accumulated changes to the bound path. Use never
// acquires or releases the marker itself.
//
// An error from fn is returned as is and nothing is written. A handle with
// no bound path fails with ErrNoPath before fn runs, since the implicit
// write has nowhere to go.
func (h *Handle) Use(fn func(*Handle) error) error {
	if h.Path() == "" {
		return fmt.Errorf("%w: scope exit has nowhere to write", ErrNoPath)
	}
	if err := fn(h); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.meta.path == "" {
		return fmt.Errorf("%w: scope exit has nowhere to write", ErrNoPath)
	}
	if !h.meta.writable {
		return nil
	}
	return h.writeLocked("")
}

// Transaction promotes the handle to writable if needed (re-reading the
// file), runs fn, writes the result, and releases the marker again if the
// handle was read-only on entry. The handle's posture is the same before
// and after the call.
func (h *Handle) Transaction(fn func(*Handle) error) (err error) {
	promoted, err := h.MakeWritable("")
	if err != nil {
		return err
	}
	if promoted {
		defer func() {
			if _, releaseErr := h.MakeReadOnly(); releaseErr != nil {
				err = errors.Join(err, releaseErr)
			}
		}()
	}

	if err := fn(h); err != nil {
		return err
	}
	return h.Write()
}
