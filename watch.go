// FILE: lixenwraith/yacman/watch.go
package yacman

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// EventKind classifies a change observed next to the Target Path.
type EventKind int

const (
	// EventFileChanged fires once per burst of writes or replacements of the target
	EventFileChanged EventKind = iota
	// EventFileRemoved fires when the target is deleted
	EventFileRemoved
	// EventMarkerCreated fires when some process takes the lock
	EventMarkerCreated
	// EventMarkerRemoved fires when the lock is released
	EventMarkerRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventFileChanged:
		return "file-changed"
	case EventFileRemoved:
		return "file-removed"
	case EventMarkerCreated:
		return "lock-created"
	case EventMarkerRemoved:
		return "lock-removed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a change to the Target Path or its lock marker.
type Event struct {
	Kind EventKind
	Path string
}

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// Debounce coalesces bursts of target writes into one event
	Debounce time.Duration

	// Buffer is the event channel capacity
	Buffer int
}

// DefaultWatchOptions returns sensible defaults for file watching
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		Debounce: DefaultDebounce,
		Buffer:   16,
	}
}

// Watch reports changes to the bound file and its lock marker until ctx is
// done, then closes the channel. The handle's tree is not reloaded; call
// Reload on EventFileChanged to pick up another process's commit.
func (h *Handle) Watch(ctx context.Context) (<-chan Event, error) {
	return h.WatchWithOptions(ctx, DefaultWatchOptions())
}

// WatchWithOptions is Watch with custom options.
func (h *Handle) WatchWithOptions(ctx context.Context, opts WatchOptions) (<-chan Event, error) {
	path := h.Path()
	if path == "" {
		return nil, fmt.Errorf("%w: nothing to watch", ErrNoPath)
	}
	if _, ok := h.fs.(*afero.OsFs); !ok {
		return nil, fmt.Errorf("watch requires the OS filesystem, got %s", h.fs.Name())
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Buffer < 0 {
		opts.Buffer = 0
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// The directory is watched, not the file: atomic writes replace the file's inode.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", filepath.Dir(path), err)
	}

	events := make(chan Event, opts.Buffer)
	go h.watchLoop(ctx, w, path, opts.Debounce, events)
	return events, nil
}

func (h *Handle) watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, debounce time.Duration, events chan<- Event) {
	defer close(events)
	defer w.Close()

	markerPath := MarkerPath(path)
	var timer *time.Timer
	var fire <-chan time.Time

	emit := func(e Event) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-fire:
			fire = nil
			if !emit(Event{Kind: EventFileChanged, Path: path}) {
				return
			}

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			switch filepath.Clean(ev.Name) {
			case markerPath:
				switch {
				case ev.Has(fsnotify.Create):
					if !emit(Event{Kind: EventMarkerCreated, Path: markerPath}) {
						return
					}
				case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
					if !emit(Event{Kind: EventMarkerRemoved, Path: markerPath}) {
						return
					}
				}

			case path:
				if ev.Has(fsnotify.Remove) {
					if !emit(Event{Kind: EventFileRemoved, Path: path}) {
						return
					}
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if timer == nil {
						timer = time.NewTimer(debounce)
					} else {
						timer.Reset(debounce)
					}
					fire = timer.C
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.logger.Warn("file watcher error", "path", path, "error", err)
		}
	}
}
