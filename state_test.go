// FILE: lixenwraith/yacman/state_test.go
package yacman

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMakeWritable tests promotion to the write-holding state
func TestMakeWritable(t *testing.T) {
	t.Run("RereadsLatestCommit", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTestFile(t, dir, "app.yaml", "a: 1\n")

		h, err := New(testOptions(path))
		require.NoError(t, err)

		// Unsaved edit, then another process commits a different value
		require.NoError(t, h.Set("a", 2))
		writeTestFile(t, dir, "app.yaml", "a: 3\n")

		promoted, err := h.MakeWritable("")
		require.NoError(t, err)
		assert.True(t, promoted)
		assert.Equal(t, StateWriteHolding, h.State())
		assert.True(t, markerPresent(path))

		val, _ := h.Get("a")
		assert.Equal(t, 3, val)
	})

	t.Run("AlreadyWritableIsNoop", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.yaml")
		opts := testOptions(path)
		opts.Writable = true
		h, err := New(opts)
		require.NoError(t, err)
		defer h.Close()

		require.NoError(t, h.Set("unsaved", true))

		promoted, err := h.MakeWritable("")
		require.NoError(t, err)
		assert.False(t, promoted)
		assert.True(t, h.Has("unsaved"), "no re-read when already holding")

		promoted, err = h.MakeWritable(path)
		require.NoError(t, err)
		assert.False(t, promoted, "same path given explicitly")
	})

	t.Run("NewPathMovesMarker", func(t *testing.T) {
		dir := t.TempDir()
		oldPath := filepath.Join(dir, "old.yaml")
		newPath := writeTestFile(t, dir, "new.yaml", "from: new\n")

		opts := testOptions(oldPath)
		opts.Writable = true
		h, err := New(opts)
		require.NoError(t, err)
		defer h.Close()

		promoted, err := h.MakeWritable(newPath)
		require.NoError(t, err)
		assert.True(t, promoted)

		assert.False(t, markerPresent(oldPath))
		assert.True(t, markerPresent(newPath))
		assert.Equal(t, "new.yaml", filepath.Base(h.Path()))

		val, _ := h.Get("from")
		assert.Equal(t, "new", val)
	})

	t.Run("MissingFileKeepsMemory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fresh.yaml")
		h := FromEntries(map[string]any{"seed": 1})

		promoted, err := h.MakeWritable(path)
		require.NoError(t, err)
		assert.True(t, promoted)
		defer h.Close()

		val, _ := h.Get("seed")
		assert.Equal(t, 1, val)
		assert.Equal(t, StateWriteHolding, h.State())
	})

	t.Run("CreatesParentDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "app.yaml")
		h := FromEntries(map[string]any{"seed": 1})
		defer h.Close()

		promoted, err := h.MakeWritable(path)
		require.NoError(t, err)
		assert.True(t, promoted)
		assert.True(t, markerPresent(path))

		require.NoError(t, h.Write())
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("TimeoutLeavesHandleUnchanged", func(t *testing.T) {
		path := writeTestFile(t, t.TempDir(), "app.yaml", "a: 1\n")
		h, err := New(testOptions(path))
		require.NoError(t, err)

		require.NoError(t, h.Set("a", 42))
		holdMarker(t, path)

		promoted, err := h.MakeWritable("")
		assert.ErrorIs(t, err, ErrLockTimeout)
		assert.False(t, promoted)
		assert.Equal(t, StateReadUnlocked, h.State())

		val, _ := h.Get("a")
		assert.Equal(t, 42, val, "in-memory tree untouched on failure")
	})

	t.Run("TimeoutKeepsPreviousMarker", func(t *testing.T) {
		dir := t.TempDir()
		oldPath := filepath.Join(dir, "old.yaml")
		newPath := filepath.Join(dir, "new.yaml")

		opts := testOptions(oldPath)
		opts.Writable = true
		h, err := New(opts)
		require.NoError(t, err)
		defer h.Close()

		holdMarker(t, newPath)
		_, err = h.MakeWritable(newPath)
		assert.ErrorIs(t, err, ErrLockTimeout)

		assert.True(t, markerPresent(oldPath))
		assert.Equal(t, "old.yaml", filepath.Base(h.Path()))
		assert.Equal(t, StateWriteHolding, h.State())
	})

	t.Run("NoPath", func(t *testing.T) {
		h := FromEntries(map[string]any{"a": 1})

		promoted, err := h.MakeWritable("")
		assert.ErrorIs(t, err, ErrNoPath)
		assert.False(t, promoted)
		assert.Equal(t, StateNoPath, h.State())
	})
}

// TestMakeReadOnly tests releasing the marker
func TestMakeReadOnly(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.yaml")
		opts := testOptions(path)
		opts.Writable = true
		h, err := New(opts)
		require.NoError(t, err)

		released, err := h.MakeReadOnly()
		require.NoError(t, err)
		assert.True(t, released)
		assert.False(t, markerPresent(path))
		assert.Equal(t, StateReadUnlocked, h.State())

		released, err = h.MakeReadOnly()
		require.NoError(t, err)
		assert.False(t, released)
	})

	t.Run("ReadOnlyHandle", func(t *testing.T) {
		path := writeTestFile(t, t.TempDir(), "app.yaml", "a: 1\n")
		h, err := New(testOptions(path))
		require.NoError(t, err)

		released, err := h.MakeReadOnly()
		require.NoError(t, err)
		assert.False(t, released)
	})

	t.Run("NeverWrites", func(t *testing.T) {
		path := writeTestFile(t, t.TempDir(), "app.yaml", "a: 1\n")
		opts := testOptions(path)
		opts.Writable = true
		h, err := New(opts)
		require.NoError(t, err)

		require.NoError(t, h.Set("a", 2))
		_, err = h.MakeReadOnly()
		require.NoError(t, err)

		fresh, err := New(testOptions(path))
		require.NoError(t, err)
		val, _ := fresh.Get("a")
		assert.Equal(t, 1, val)
	})

	t.Run("NoPath", func(t *testing.T) {
		h := FromEntries(nil)

		released, err := h.MakeReadOnly()
		assert.ErrorIs(t, err, ErrNoPath)
		assert.False(t, released)
	})
}

// TestAccessStateString tests state names used in logs
func TestAccessStateString(t *testing.T) {
	assert.Equal(t, "no-path", StateNoPath.String())
	assert.Equal(t, "read-unlocked", StateReadUnlocked.String())
	assert.Equal(t, "read-locked", StateReadLocked.String())
	assert.Equal(t, "write-holding", StateWriteHolding.String())
	assert.Equal(t, "AccessState(9)", AccessState(9).String())
}
