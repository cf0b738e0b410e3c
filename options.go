// FILE: lixenwraith/yacman/options.go
package yacman

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/afero"
)

// AliasFunc produces an alias mapping on demand.
type AliasFunc func() (map[string]string, error)

// Options configures how a Handle is constructed.
type Options struct {
	// Entries seed the tree. With a FilePath they are merged over the file contents.
	Entries map[string]any

	// FilePath is the Target Path. Empty builds an in-memory handle.
	FilePath string

	// Text is a raw document parsed into the tree (before Entries are applied)
	Text string

	// Writable acquires the lock marker at construction and keeps it
	Writable bool

	// WaitMax bounds every lock acquisition. Zero means a single attempt.
	WaitMax time.Duration

	// SkipReadLock reads a read-only handle's file without taking the marker
	SkipReadLock bool

	// SchemaSource is a path to a JSON Schema document (JSON or YAML)
	SchemaSource string

	// Schema is an already compiled schema; takes precedence over SchemaSource
	Schema *Schema

	// WriteValidate validates the tree against the schema on every Write
	WriteValidate bool

	// StrictWrite fails a Write with ErrLockTimeout when another process
	// holds the destination marker, instead of warning and writing anyway
	StrictWrite bool

	// Format forces a codec; FormatAuto detects it from extension and content
	Format Format

	// Defaults is a struct whose tagged fields fill keys missing after load
	Defaults any

	// TagName is the struct tag used by Defaults and Scan
	TagName string

	// Aliases maps keys to aliases for AliasedHandle
	Aliases map[string]string

	// AliasFunc is consulted when Aliases is nil
	AliasFunc AliasFunc

	// ExactKeys disables alias resolution entirely
	ExactKeys bool

	// Fs is the filesystem holding the target and its marker
	Fs afero.Fs

	// Logger receives lock warnings and debug traces
	Logger *slog.Logger

	// Context bounds lock waits in addition to WaitMax
	Context context.Context

	// PollInterval is the marker create retry interval
	PollInterval time.Duration
}

// DefaultOptions returns the conservative defaults: read-only, read locking
// on, DefaultWaitMax, format detection, OS filesystem.
func DefaultOptions() Options {
	return Options{
		WaitMax:      DefaultWaitMax,
		Format:       FormatAuto,
		TagName:      "yaml",
		PollInterval: DefaultPollInterval,
	}
}

// withDefaults fills the ambient fields left unset by the caller.
// WaitMax is not touched: zero is a valid single-attempt budget.
func (o Options) withDefaults() Options {
	if o.Format == "" {
		o.Format = FormatAuto
	}
	if o.TagName == "" {
		o.TagName = "yaml"
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	return o
}
