// FILE: lixenwraith/yacman/timing.go
package yacman

import "time"

// Core timing constants for production use.
// These define the lock wait and watch behavior of the package.
const (
	// Lock polling (ordered by frequency)
	DefaultPollInterval = 50 * time.Millisecond  // Fixed marker create retry interval
	DefaultDebounce     = 100 * time.Millisecond // File change coalescence period for Watch
	DefaultWaitMax      = 10 * time.Second       // Maximum wait for a held marker
)

// Derived timing relationships for internal use.
const (
	// waitLogThreshold is how long a waiter stays quiet before reporting contention
	waitLogThreshold = 10 * DefaultPollInterval // = 500ms
)
