// FILE: lixenwraith/yacman/digest.go
package yacman

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

// digestOf returns the hex blake3 digest of data.
func digestOf(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Stale reports whether the bound file differs from what this handle last
// read or wrote, i.e. another process committed a change since.
func (h *Handle) Stale() (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.meta.path == "" {
		return false, fmt.Errorf("%w: no file to compare", ErrNoPath)
	}
	return h.staleLocked()
}

func (h *Handle) staleLocked() (bool, error) {
	raw, err := afero.ReadFile(h.fs, h.meta.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Stale only if we had seen content that is now gone
			return h.digest != "", nil
		}
		return false, fmt.Errorf("failed to read config file '%s': %w", h.meta.path, err)
	}
	return digestOf(raw) != h.digest, nil
}
