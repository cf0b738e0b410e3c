// FILE: lixenwraith/yacman/write_test.go
package yacman

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWrite tests persisting the tree under the lock protocol
func TestWrite(t *testing.T) {
	t.Run("NoPathFails", func(t *testing.T) {
		h := FromEntries(map[string]any{"a": 1})

		err := h.Write()
		assert.ErrorIs(t, err, ErrNoPath)
		assert.Equal(t, StateNoPath, h.State())
	})

	t.Run("ExplicitPathBindsAndHolds", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.yaml")
		h := FromEntries(map[string]any{"a": 1})
		defer h.Close()

		require.NoError(t, h.Write(path))

		_, err := os.Stat(path)
		assert.NoError(t, err, "file created")
		assert.True(t, markerPresent(path), "marker created")
		assert.Equal(t, StateWriteHolding, h.State())
		assert.Equal(t, "out.yaml", filepath.Base(h.Path()))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.yaml")
		entries := map[string]any{
			"name":  "demo",
			"ratio": 0.25,
			"count": 3,
			"on":    true,
			"list":  []any{"a", 1, false},
			"server": map[string]any{
				"host": "localhost",
				"tls":  map[string]any{"enabled": false},
			},
		}

		h := FromEntries(entries)
		require.NoError(t, h.Write(path))
		require.NoError(t, h.Close())

		opts := testOptions(path)
		opts.SkipReadLock = true
		fresh, err := New(opts)
		require.NoError(t, err)

		assert.True(t, fresh.Equal(h))
		assert.True(t, EqualData(entries, fresh.Data()))
	})

	t.Run("WithoutLockWarnsAndTakesLock", func(t *testing.T) {
		path := writeTestFile(t, t.TempDir(), "app.yaml", "a: 1\n")
		logger, buf := captureLogger()

		opts := testOptions(path)
		opts.Logger = logger
		h, err := New(opts)
		require.NoError(t, err)
		defer h.Close()

		require.NoError(t, h.Set("a", 2))
		require.NoError(t, h.Write())

		assert.Contains(t, buf.String(), "writing without holding the lock")
		assert.Equal(t, StateWriteHolding, h.State())
		assert.True(t, markerPresent(path))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "a: 2\n", string(raw))
	})

	t.Run("OtherPathMovesLock", func(t *testing.T) {
		dir := t.TempDir()
		first := filepath.Join(dir, "first.yaml")
		second := filepath.Join(dir, "second.yaml")
		logger, buf := captureLogger()

		opts := testOptions(first)
		opts.Writable = true
		opts.Logger = logger
		opts.Entries = map[string]any{"k": "v"}
		h, err := New(opts)
		require.NoError(t, err)
		defer h.Close()

		require.NoError(t, h.Write(second))

		assert.Contains(t, buf.String(), "lock is not held by this handle")
		assert.False(t, markerPresent(first))
		assert.True(t, markerPresent(second))
		assert.Equal(t, "second.yaml", filepath.Base(h.Path()))

		_, err = os.Stat(first)
		assert.True(t, os.IsNotExist(err), "nothing written to the previous path")
	})

	t.Run("HeldElsewhereWarnsAndWrites", func(t *testing.T) {
		path := writeTestFile(t, t.TempDir(), "held.yaml", "a: 1\n")
		logger, logs := captureLogger()
		opts := testOptions(path)
		opts.Logger = logger
		h, err := New(opts)
		require.NoError(t, err)
		holdMarker(t, path)

		require.NoError(t, h.Set("a", 2))
		require.NoError(t, h.Write())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "a: 2\n", string(raw))
		assert.Equal(t, StateReadUnlocked, h.State(), "lock state unchanged")
		assert.True(t, markerPresent(path), "other process keeps its marker")
		assert.Contains(t, logs.String(), "writing anyway")

		released, err := h.MakeReadOnly()
		require.NoError(t, err)
		assert.False(t, released)
		assert.True(t, markerPresent(path))
	})

	t.Run("HeldElsewhereKeepsOwnMarker", func(t *testing.T) {
		dir := t.TempDir()
		own := filepath.Join(dir, "own.yaml")
		other := filepath.Join(dir, "other.yaml")
		opts := testOptions(own)
		opts.Writable = true
		opts.Entries = map[string]any{"a": 1}
		h, err := New(opts)
		require.NoError(t, err)
		defer h.Close()
		holdMarker(t, other)

		require.NoError(t, h.Write(other))

		_, err = os.Stat(other)
		assert.NoError(t, err)
		assert.Equal(t, StateWriteHolding, h.State())
		assert.Equal(t, filepath.Base(own), filepath.Base(h.Path()))
		assert.True(t, markerPresent(own))
	})

	t.Run("StrictWriteAborts", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "held.yaml")
		holdMarker(t, path)

		h, err := NewBuilder().
			WithEntries(map[string]any{"a": 1}).
			WithWaitMax(0).
			StrictWrite().
			WithLogger(quietLogger()).
			Build()
		require.NoError(t, err)

		assert.ErrorIs(t, h.Write(path), ErrLockTimeout)
		assert.Equal(t, StateNoPath, h.State())
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("FailedWriteKeepsBinding", func(t *testing.T) {
		dir := t.TempDir()
		first := filepath.Join(dir, "a.yaml")
		second := filepath.Join(dir, "b.yaml")
		opts := testOptions(first)
		opts.Writable = true
		opts.Entries = map[string]any{"a": 1}
		h, err := New(opts)
		require.NoError(t, err)
		require.NoError(t, os.Mkdir(second, 0755))

		assert.Error(t, h.Write(second))
		assert.Equal(t, StateWriteHolding, h.State())
		assert.Equal(t, "a.yaml", filepath.Base(h.Path()))
		assert.True(t, markerPresent(first))
		assert.False(t, markerPresent(second))

		released, err := h.MakeReadOnly()
		require.NoError(t, err)
		assert.True(t, released)
		assert.False(t, markerPresent(first))
	})

	t.Run("FailedWriteStaysUnlocked", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.yaml")
		h, err := New(testOptions(path))
		require.NoError(t, err)
		require.NoError(t, os.Mkdir(path, 0755))
		require.NoError(t, h.Set("a", 1))

		assert.Error(t, h.Write())
		assert.Equal(t, StateReadUnlocked, h.State())
		assert.False(t, markerPresent(path))
	})

	t.Run("CreatesParentDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "app.yaml")
		h := FromEntries(map[string]any{"a": 1})
		defer h.Close()

		require.NoError(t, h.Write(path))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("NoTempFilesLeft", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "app.yaml")
		h := FromEntries(map[string]any{"a": 1})
		defer h.Close()

		require.NoError(t, h.Write(path))
		require.NoError(t, h.Write())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.ElementsMatch(t, []string{"app.yaml", "lock.app.yaml"}, names)
	})

	t.Run("FormatFromExtension", func(t *testing.T) {
		dir := t.TempDir()
		h := FromEntries(map[string]any{"server": map[string]any{"port": 8080}})
		defer h.Close()

		jsonPath := filepath.Join(dir, "app.json")
		require.NoError(t, h.Write(jsonPath))
		raw, err := os.ReadFile(jsonPath)
		require.NoError(t, err)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, float64(8080), decoded["server"].(map[string]any)["port"])

		tomlPath := filepath.Join(dir, "app.toml")
		require.NoError(t, h.Write(tomlPath))
		raw, err = os.ReadFile(tomlPath)
		require.NoError(t, err)
		decoded = nil
		require.NoError(t, toml.Unmarshal(raw, &decoded))
		assert.Equal(t, int64(8080), decoded["server"].(map[string]any)["port"])
	})

	t.Run("KeepsDetectedFormat", func(t *testing.T) {
		path := writeTestFile(t, t.TempDir(), "settings", `{"a": 1}`)
		opts := testOptions(path)
		opts.Writable = true
		h, err := New(opts)
		require.NoError(t, err)
		defer h.Close()

		require.NoError(t, h.Set("b", 2))
		require.NoError(t, h.Write())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var decoded map[string]any
		assert.NoError(t, json.Unmarshal(raw, &decoded), "extensionless JSON stays JSON")
	})

	t.Run("MemMapFs", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		h, err := NewBuilder().
			WithFile("/virtual/app/config.yaml").
			Writable().
			WithEntries(map[string]any{"a": 1}).
			WithFs(fs).
			WithLogger(quietLogger()).
			Build()
		require.NoError(t, err)

		require.NoError(t, h.Write())
		raw, err := afero.ReadFile(fs, "/virtual/app/config.yaml")
		require.NoError(t, err)
		assert.Equal(t, "a: 1\n", string(raw))
		assert.True(t, MarkerExists(fs, "/virtual/app/lock.config.yaml"))

		require.NoError(t, h.Close())
		assert.False(t, MarkerExists(fs, "/virtual/app/lock.config.yaml"))
	})
}

// TestLockingScenario walks two writers and a reader through one file
func TestLockingScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.yaml")

	opts := testOptions(path)
	opts.Writable = true
	h1, err := New(opts)
	require.NoError(t, err)
	assert.True(t, markerPresent(path))

	// A reader with locking on cannot get in while h1 holds the marker
	h2, err := New(testOptions(path))
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Nil(t, h2)

	require.NoError(t, h1.Use(func(h *Handle) error {
		return h.Set("a", 1)
	}))
	released, err := h1.MakeReadOnly()
	require.NoError(t, err)
	assert.True(t, released)
	assert.False(t, markerPresent(path))

	h3, err := New(testOptions(path))
	require.NoError(t, err)
	val, ok := h3.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, val)
}
