// File: lixenwraith/yacman/builder.go
package yacman

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
)

// Builder provides a fluent interface for constructing handles
type Builder struct {
	opts     Options
	selector *Selector
	err      error
}

// NewBuilder creates a new handle builder starting from DefaultOptions
func NewBuilder() *Builder {
	return &Builder{opts: DefaultOptions()}
}

// WithFile sets the Target Path
func (b *Builder) WithFile(path string) *Builder {
	b.opts.FilePath = path
	return b
}

// WithFileDiscovery resolves the Target Path with s at Build time.
// An explicit WithFile path takes precedence when it exists.
func (b *Builder) WithFileDiscovery(s Selector) *Builder {
	b.selector = &s
	return b
}

// WithEntries seeds the tree; with a file they are merged over its contents
func (b *Builder) WithEntries(entries map[string]any) *Builder {
	b.opts.Entries = entries
	return b
}

// WithText parses a raw document into the tree
func (b *Builder) WithText(text string) *Builder {
	b.opts.Text = text
	return b
}

// Writable acquires and keeps the lock marker at construction
func (b *Builder) Writable() *Builder {
	b.opts.Writable = true
	return b
}

// WithWaitMax bounds lock acquisition; zero means a single attempt
func (b *Builder) WithWaitMax(d time.Duration) *Builder {
	if d < 0 {
		b.err = fmt.Errorf("wait max cannot be negative: %v", d)
		return b
	}
	b.opts.WaitMax = d
	return b
}

// SkipReadLock reads a read-only handle's file without taking the marker
func (b *Builder) SkipReadLock() *Builder {
	b.opts.SkipReadLock = true
	return b
}

// WithSchema sets the schema document path
func (b *Builder) WithSchema(source string) *Builder {
	b.opts.SchemaSource = source
	return b
}

// WithCompiledSchema sets an already compiled schema
func (b *Builder) WithCompiledSchema(s *Schema) *Builder {
	b.opts.Schema = s
	return b
}

// WithWriteValidate validates the tree on every write
func (b *Builder) WithWriteValidate(enabled bool) *Builder {
	b.opts.WriteValidate = enabled
	return b
}

// StrictWrite makes writes fail instead of warn when the destination lock is held elsewhere
func (b *Builder) StrictWrite() *Builder {
	b.opts.StrictWrite = true
	return b
}

// WithFormat forces the document codec
func (b *Builder) WithFormat(format Format) *Builder {
	b.opts.Format = format
	return b
}

// WithDefaults sets the struct containing default values
func (b *Builder) WithDefaults(defaults any) *Builder {
	b.opts.Defaults = defaults
	return b
}

// WithTagName sets the struct tag used for defaults and Scan
func (b *Builder) WithTagName(tagName string) *Builder {
	switch tagName {
	case "yaml", "json", "toml", "mapstructure":
		b.opts.TagName = tagName
	default:
		b.err = fmt.Errorf("unsupported tag name %q, must be one of: yaml, json, toml, mapstructure", tagName)
	}
	return b
}

// WithAliases sets a key to alias mapping for BuildAliased
func (b *Builder) WithAliases(aliases map[string]string) *Builder {
	b.opts.Aliases = aliases
	return b
}

// WithAliasFunc sets a lazily evaluated alias mapping for BuildAliased
func (b *Builder) WithAliasFunc(fn AliasFunc) *Builder {
	b.opts.AliasFunc = fn
	return b
}

// ExactKeys disables alias resolution
func (b *Builder) ExactKeys() *Builder {
	b.opts.ExactKeys = true
	return b
}

// WithFs sets the filesystem holding the target and its marker
func (b *Builder) WithFs(fs afero.Fs) *Builder {
	b.opts.Fs = fs
	return b
}

// WithLogger sets the logger for lock warnings and traces
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.opts.Logger = logger
	return b
}

// WithContext bounds lock waits by ctx in addition to the wait budget
func (b *Builder) WithContext(ctx context.Context) *Builder {
	b.opts.Context = ctx
	return b
}

// WithPollInterval sets the marker retry interval
func (b *Builder) WithPollInterval(d time.Duration) *Builder {
	b.opts.PollInterval = d
	return b
}

// Options returns the options the builder would construct with
func (b *Builder) Options() Options {
	return b.opts
}

// resolve applies file discovery and returns the final options
func (b *Builder) resolve() (Options, error) {
	if b.err != nil {
		return Options{}, b.err
	}

	opts := b.opts
	if b.selector != nil {
		s := *b.selector
		if opts.FilePath != "" {
			s.Explicit = opts.FilePath
		}
		path, err := s.Resolve()
		if err != nil {
			return Options{}, err
		}
		if path != "" {
			opts.FilePath = path
		}
	}
	return opts, nil
}

// Build creates the Handle with all specified options
func (b *Builder) Build() (*Handle, error) {
	opts, err := b.resolve()
	if err != nil {
		return nil, err
	}
	return New(opts)
}

// BuildAliased creates an AliasedHandle with all specified options
func (b *Builder) BuildAliased() (*AliasedHandle, error) {
	opts, err := b.resolve()
	if err != nil {
		return nil, err
	}
	return NewAliased(opts)
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Handle {
	h, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("yacman build failed: %v", err))
	}
	return h
}
