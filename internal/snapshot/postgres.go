package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultKey names the snapshot row in database backends.
const DefaultKey = "sheet"

const pgSchema = `CREATE TABLE IF NOT EXISTS sheet_snapshots (
	key        TEXT PRIMARY KEY,
	payload    BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// pgQuerier is the subset of *pgxpool.Pool the store uses.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the snapshot as one row of sheet_snapshots.
type PostgresStore struct {
	db  pgQuerier
	key string
	now func() time.Time
}

// NewPostgresStore returns a store writing the row named key. db is usually
// a *pgxpool.Pool.
func NewPostgresStore(db pgQuerier, key string) *PostgresStore {
	if key == "" {
		key = DefaultKey
	}
	return &PostgresStore{db: db, key: key, now: time.Now}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("create sheet_snapshots: %w", err)
	}
	return nil
}

// Stat implements Store.
func (s *PostgresStore) Stat(ctx context.Context) (Metadata, error) {
	var (
		updated time.Time
		size    int64
	)
	err := s.db.QueryRow(ctx,
		`SELECT updated_at, octet_length(payload) FROM sheet_snapshots WHERE key = $1`,
		s.key,
	).Scan(&updated, &size)
	if errors.Is(err, pgx.ErrNoRows) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("stat snapshot %q: %w", s.key, err)
	}
	return Metadata{Exists: true, ModTime: updated, Size: size}, nil
}

// Read implements Store.
func (s *PostgresStore) Read(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRow(ctx,
		`SELECT payload FROM sheet_snapshots WHERE key = $1`,
		s.key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", s.key, err)
	}
	return payload, nil
}

// Write implements Store.
func (s *PostgresStore) Write(ctx context.Context, data []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO sheet_snapshots (key, payload, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		s.key, data, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.key, err)
	}
	return nil
}
