// FILE: lixenwraith/yacman/errors.go
package yacman

import "errors"

var (
	// ErrLockTimeout is returned when a lock marker could not be created within the wait budget.
	ErrLockTimeout = errors.New("yacman: lock acquisition timed out")

	// ErrNoPath is returned when an operation needs a file path and none is bound or given.
	ErrNoPath = errors.New("yacman: no file path bound to handle")

	// ErrValidation is returned when the tree does not satisfy the configured schema.
	ErrValidation = errors.New("yacman: schema validation failed")

	// ErrConfigNotFound is returned by strict config path resolution when nothing matched.
	ErrConfigNotFound = errors.New("yacman: config file not found")

	// ErrUnknownFormat is returned when no codec can be chosen for a document.
	ErrUnknownFormat = errors.New("yacman: unknown document format")

	// ErrParse is returned when a document cannot be decoded.
	ErrParse = errors.New("yacman: failed to parse document")

	// ErrAliasesNotSet is returned by alias lookups on a handle without an alias mapping.
	ErrAliasesNotSet = errors.New("yacman: alias mapping is not defined")

	// ErrAliasUndefined is returned when no alias matches the requested key.
	ErrAliasUndefined = errors.New("yacman: no alias defined")

	// ErrNotMap is returned when a dotted path crosses a non-map value.
	ErrNotMap = errors.New("yacman: path segment is not a map")
)
