package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultSQLitePath is the database file used when none is configured.
const DefaultSQLitePath = "data_cache.db"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS sheet_snapshots (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps the snapshot as one row of sheet_snapshots in a SQLite
// file. updated_at holds Unix nanoseconds.
type SQLiteStore struct {
	db  *sql.DB
	key string
	now func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path and
// prepares the snapshot table.
func OpenSQLiteStore(ctx context.Context, path, key string) (*SQLiteStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if key == "" {
		key = DefaultKey
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer; SQLite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sheet_snapshots: %w", err)
	}

	return &SQLiteStore{db: db, key: key, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Stat implements Store.
func (s *SQLiteStore) Stat(ctx context.Context) (Metadata, error) {
	var updated, size int64
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at, length(payload) FROM sheet_snapshots WHERE key = ?`,
		s.key,
	).Scan(&updated, &size)
	if errors.Is(err, sql.ErrNoRows) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("stat snapshot %q: %w", s.key, err)
	}
	return Metadata{Exists: true, ModTime: time.Unix(0, updated), Size: size}, nil
}

// Read implements Store.
func (s *SQLiteStore) Read(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM sheet_snapshots WHERE key = ?`,
		s.key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", s.key, err)
	}
	return payload, nil
}

// Write implements Store.
func (s *SQLiteStore) Write(ctx context.Context, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sheet_snapshots (key, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.key, data, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.key, err)
	}
	return nil
}
