// FILE: lixenwraith/yacman/doc.go

// Package yacman manages a configuration file shared by cooperating
// processes. Each Handle holds an in-memory tree loaded from YAML, JSON or
// TOML and coordinates access to its file through a lock marker: an empty
// file named lock.<base> next to the target, created with O_EXCL.
//
// Features:
//   - Exclusive write access through atomically created marker files
//   - Bounded, polling lock acquisition (ErrLockTimeout on expiry)
//   - Optional short read locks so readers never see a half-written file
//   - Explicit access states: no-path, read-unlocked, write-holding
//   - Re-read on promotion to writable, so writers start from the latest commit
//   - Scoped writes (Use) and promote/write/demote transactions (Transaction)
//   - JSON Schema validation at construction and before writes
//   - Aliases, typed getters, struct decoding and struct defaults
//   - Change detection with blake3 digests and fsnotify watching
//
// Quick Start:
//
//	h, err := yacman.OpenWritable("settings.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	h.Set("server.port", 9090)
//	if err := h.Write(); err != nil {
//	    log.Fatal(err)
//	}
//
// Read-modify-write from a read-only handle:
//
//	h, _ := yacman.Open("settings.yaml")
//	err := h.Transaction(func(h *yacman.Handle) error {
//	    n, _ := h.Int64("counter")
//	    return h.Set("counter", n+1)
//	})
//
// Markers are advisory. Any process that respects the protocol serializes
// its writes; a process that ignores it is not stopped. A crashed writer
// leaves its marker behind and blocks others until it is removed (see the
// yacman CLI's unlock --force).
//
// Thread Safety:
// A Handle guards its tree and metadata with a read-write mutex and may be
// shared between goroutines. Locking between goroutines of one process is
// still best done with one Handle per file.
package yacman
