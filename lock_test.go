// FILE: lixenwraith/yacman/lock_test.go
package yacman

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMarkerPath tests marker placement next to the target
func TestMarkerPath(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/etc/app/config.yaml", "/etc/app/lock.config.yaml"},
		{"/data/settings", "/data/lock.settings"},
		{"/a/b/../c/x.toml", "/a/c/lock.x.toml"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), MarkerPath(filepath.FromSlash(tt.target)))
		})
	}
}

// TestMarkerProtocol tests exclusive creation and idempotent removal
func TestMarkerProtocol(t *testing.T) {
	t.Run("ExclusiveCreate", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/cfg", 0755))
		marker := MarkerPath("/cfg/app.yaml")

		created, err := TryCreateMarker(fs, marker)
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, MarkerExists(fs, marker))

		created, err = TryCreateMarker(fs, marker)
		require.NoError(t, err)
		assert.False(t, created, "second create must not succeed")

		info, err := fs.Stat(marker)
		require.NoError(t, err)
		assert.Zero(t, info.Size(), "marker carries no content")
	})

	t.Run("RemoveIsIdempotent", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/cfg", 0755))
		marker := MarkerPath("/cfg/app.yaml")

		_, err := TryCreateMarker(fs, marker)
		require.NoError(t, err)

		require.NoError(t, RemoveMarker(fs, marker))
		assert.False(t, MarkerExists(fs, marker))
		assert.NoError(t, RemoveMarker(fs, marker))
	})

	t.Run("MissingDirectoryFails", func(t *testing.T) {
		fs := afero.NewOsFs()
		marker := MarkerPath(filepath.Join(t.TempDir(), "missing", "app.yaml"))

		created, err := TryCreateMarker(fs, marker)
		assert.Error(t, err)
		assert.False(t, created)
	})

	t.Run("ConcurrentCreateHasOneWinner", func(t *testing.T) {
		fs := afero.NewOsFs()
		marker := MarkerPath(filepath.Join(t.TempDir(), "app.yaml"))

		var winners atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				created, err := TryCreateMarker(fs, marker)
				if err == nil && created {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), winners.Load())
	})
}

// TestCanonicalPath tests path normalization used for marker identity
func TestCanonicalPath(t *testing.T) {
	dir := t.TempDir()
	resolvedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	got, err := canonicalPath(filepath.Join(dir, "sub", "..", "app.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolvedDir, "app.yaml"), got)

	// A file that does not exist yet keeps its base name
	got, err = canonicalPath(filepath.Join(dir, "new.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "new.yaml", filepath.Base(got))
}
