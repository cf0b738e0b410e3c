// File: lixenwraith/yacman/convenience.go
package yacman

import (
	"fmt"
)

// Open reads path into a read-only handle, holding the marker only while
// the file is read.
func Open(path string) (*Handle, error) {
	return NewBuilder().WithFile(path).Build()
}

// OpenWritable acquires the marker for path, waiting up to DefaultWaitMax,
// and keeps it until MakeReadOnly or Close.
func OpenWritable(path string) (*Handle, error) {
	return NewBuilder().WithFile(path).Writable().Build()
}

// FromEntries builds an in-memory handle.
func FromEntries(entries map[string]any) *Handle {
	h, err := NewBuilder().WithEntries(entries).Build()
	if err != nil {
		// Cannot fail without a path, schema or defaults
		panic(fmt.Sprintf("yacman: in-memory handle: %v", err))
	}
	return h
}

// FromText parses a raw document into an in-memory handle.
func FromText(text string) (*Handle, error) {
	return NewBuilder().WithText(text).Build()
}

// Quick resolves the config path from envVars (falling back to
// defaultPath), fills missing keys from structDefaults, and opens the
// result read-only.
func Quick(structDefaults any, defaultPath string, envVars ...string) (*Handle, error) {
	path, err := SelectConfig("", envVars, defaultPath, false)
	if err != nil {
		return nil, err
	}

	b := NewBuilder().WithFile(path)
	if structDefaults != nil {
		b = b.WithDefaults(structDefaults)
	}
	return b.Build()
}

// MustOpen is like Open but panics on error
func MustOpen(path string) *Handle {
	h, err := Open(path)
	if err != nil {
		panic(fmt.Sprintf("yacman open failed: %v", err))
	}
	return h
}
