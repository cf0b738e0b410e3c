// FILE: lixenwraith/yacman/handle.go
package yacman

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// metadata is the handle bookkeeping kept beside the user tree, never inside it.
type metadata struct {
	path     string            // canonical Target Path, "" when unbound
	writable bool              // handle owns the marker for path
	aliases  map[string]string // key -> alias, nil when unset
}

// Handle binds an in-memory configuration tree to an optional file and
// tracks this process's lock posture toward that file.
type Handle struct {
	mu     sync.RWMutex
	data   map[string]any
	meta   metadata
	opts   Options
	fs     afero.Fs
	locker *Acquirer
	logger *slog.Logger
	ctx    context.Context
	schema *Schema
	format Format // codec the bound file was last read or written with
	digest string // blake3 of the bytes last synced with the bound file
}

// New constructs a Handle from opts.
//
// With a FilePath and Writable, the marker is acquired and kept. With a
// FilePath and read-only access, the marker is held only while the file is
// read, unless SkipReadLock is set. A lock timeout returns ErrLockTimeout
// and no handle.
func New(opts Options) (*Handle, error) {
	opts = opts.withDefaults()

	h := &Handle{
		data:   make(map[string]any),
		opts:   opts,
		fs:     opts.Fs,
		logger: opts.Logger,
		ctx:    opts.Context,
		locker: NewAcquirer(opts.Fs, opts.Logger).WithPollInterval(opts.PollInterval),
	}

	if opts.Schema != nil {
		h.schema = opts.Schema
	} else if opts.SchemaSource != "" {
		schema, err := LoadSchemaFs(opts.Fs, opts.SchemaSource)
		if err != nil {
			return nil, err
		}
		h.schema = schema
	}

	var defaults map[string]any
	if opts.Defaults != nil {
		var err error
		if defaults, err = entriesFromStruct(opts.Defaults, opts.TagName); err != nil {
			return nil, fmt.Errorf("failed to register defaults: %w", err)
		}
	}

	if opts.FilePath == "" {
		if opts.Writable {
			h.logger.Warn("writable handle requested without a file path; no lock taken")
		}
		if err := h.seed(opts, defaults); err != nil {
			return nil, err
		}
		if err := h.validateInitial(); err != nil {
			return nil, err
		}
		return h, nil
	}

	path, err := canonicalPath(opts.FilePath)
	if err != nil {
		return nil, err
	}

	locked := opts.Writable || !opts.SkipReadLock
	if locked {
		if err := h.locker.Acquire(h.ctx, path, opts.WaitMax); err != nil {
			return nil, err
		}
	}
	if !opts.Writable && locked {
		h.logger.Debug("reading under lock", "path", path, "state", StateReadLocked)
	}

	// fail releases the marker taken above so an aborted construction leaves nothing behind
	fail := func(cause error) (*Handle, error) {
		if locked {
			return nil, errors.Join(cause, h.locker.Release(path))
		}
		return nil, cause
	}

	fileData, format, digest, exists, err := h.readFile(path)
	if err != nil {
		return fail(err)
	}
	if exists {
		h.data = fileData
		h.format = format
		h.digest = digest
	}
	h.meta.path = path

	if err := h.seed(opts, defaults); err != nil {
		return fail(err)
	}
	if err := h.validateInitial(); err != nil {
		return fail(err)
	}

	if opts.Writable {
		h.meta.writable = true
		return h, nil
	}
	if locked {
		if err := h.locker.Release(path); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// seed layers raw text, entries and defaults over whatever the file provided.
func (h *Handle) seed(opts Options, defaults map[string]any) error {
	if opts.Text != "" {
		textData, err := parseDocument([]byte(opts.Text), resolveFormat(opts.Format, "", []byte(opts.Text)))
		if err != nil {
			return err
		}
		mergeMaps(h.data, textData)
	}
	if opts.Entries != nil {
		mergeMaps(h.data, normalizeValue(opts.Entries).(map[string]any))
	}
	if defaults != nil {
		fillMissing(h.data, defaults)
	}
	return nil
}

func (h *Handle) validateInitial() error {
	if h.schema == nil {
		return nil
	}
	return h.schema.Validate(h.data)
}

// readFile loads and parses path. A missing file is not an error: exists is
// false and the tree is empty.
func (h *Handle) readFile(path string) (tree map[string]any, format Format, digest string, exists bool, err error) {
	raw, err := afero.ReadFile(h.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]any), "", "", false, nil
		}
		return nil, "", "", false, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	format = resolveFormat(h.opts.Format, path, raw)
	if format == "" {
		return nil, "", "", true, fmt.Errorf("%w: unable to determine format of '%s'", ErrUnknownFormat, path)
	}

	tree, err = parseDocument(raw, format)
	if err != nil {
		return nil, "", "", true, fmt.Errorf("config file '%s': %w", path, err)
	}
	return tree, format, digestOf(raw), true, nil
}

// Reload discards in-memory edits and re-reads the bound file.
// A handle that does not hold the marker takes it for the duration of the
// read unless SkipReadLock was set.
func (h *Handle) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.meta.path == "" {
		return fmt.Errorf("%w: nothing to reload", ErrNoPath)
	}

	path := h.meta.path
	locked := !h.meta.writable && !h.opts.SkipReadLock
	if locked {
		if err := h.locker.Acquire(h.ctx, path, h.opts.WaitMax); err != nil {
			return err
		}
	}

	tree, format, digest, exists, err := h.readFile(path)
	if locked {
		err = errors.Join(err, h.locker.Release(path))
	}
	if err != nil {
		return err
	}

	h.data = tree
	if exists {
		h.format = format
	}
	h.digest = digest
	h.logger.Debug("reloaded config", "path", path)
	return nil
}

// Path returns the bound Target Path, or "" for an in-memory handle.
func (h *Handle) Path() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.meta.path
}

// LockPath returns the marker location for the bound path, or "".
func (h *Handle) LockPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.meta.path == "" {
		return ""
	}
	return MarkerPath(h.meta.path)
}

// Writable reports whether the handle currently owns its marker.
func (h *Handle) Writable() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.meta.writable
}

// Logger returns the handle's logger.
func (h *Handle) Logger() *slog.Logger {
	return h.logger
}
