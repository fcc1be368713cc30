// Package snapshot persists the most recent record set as a single JSON
// document. Freshness is implicit: every backend reports when the document
// was last written, and the cache compares that against its TTL.
//
// Backends:
//
//   - FileStore: one file on disk; freshness is the file's mtime
//   - PostgresStore: a row in sheet_snapshots via pgx
//   - SQLiteStore: a row in sheet_snapshots via modernc.org/sqlite
//   - MemoryStore: in-process, for tests and throwaway runs
//
// None of the backends version their writes. Concurrent writers overwrite
// each other and the last one wins.
package snapshot

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Read when no snapshot has been written.
var ErrNotFound = errors.New("snapshot not found")

// Metadata describes the stored snapshot without loading it.
type Metadata struct {
	Exists  bool
	ModTime time.Time
	Size    int64
}

// Store is the durable home of the snapshot.
type Store interface {
	// Stat reports whether a snapshot exists and when it was last written.
	// A missing snapshot is not an error.
	Stat(ctx context.Context) (Metadata, error)
	// Read returns the snapshot bytes or ErrNotFound.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the snapshot and resets its age.
	Write(ctx context.Context, data []byte) error
}

// Age returns how old the snapshot is at now. ok is false when the snapshot
// does not exist or its write time lies in the future.
func (m Metadata) Age(now time.Time) (age time.Duration, ok bool) {
	if !m.Exists {
		return 0, false
	}
	age = now.Sub(m.ModTime)
	if age < 0 {
		return age, false
	}
	return age, true
}
