package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakePG keeps rows in a map and understands only the statements
// PostgresStore issues.
type fakePG struct {
	rows    map[string]fakeSnapshot
	execErr error
	execs   []string
}

type fakeSnapshot struct {
	payload []byte
	updated time.Time
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *time.Time:
			*p = r.vals[i].(time.Time)
		case *int64:
			*p = r.vals[i].(int64)
		case *[]byte:
			*p = r.vals[i].([]byte)
		default:
			return fmt.Errorf("unsupported scan type %T", d)
		}
	}
	return nil
}

func (f *fakePG) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if strings.HasPrefix(strings.TrimSpace(sql), "INSERT") {
		f.rows[args[0].(string)] = fakeSnapshot{payload: args[1].([]byte), updated: args[2].(time.Time)}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakePG) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	snap, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	if strings.Contains(sql, "updated_at") {
		return fakeRow{vals: []any{snap.updated, int64(len(snap.payload))}}
	}
	return fakeRow{vals: []any{snap.payload}}
}

func TestPostgresStore(t *testing.T) {
	db := &fakePG{rows: make(map[string]fakeSnapshot)}
	s := NewPostgresStore(db, "bans")

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if !strings.Contains(db.execs[0], "CREATE TABLE IF NOT EXISTS sheet_snapshots") {
		t.Errorf("EnsureSchema() ran %q", db.execs[0])
	}

	exerciseStore(t, s)
}

func TestPostgresStore_WriteTimeFromClock(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	db := &fakePG{rows: make(map[string]fakeSnapshot)}
	s := NewPostgresStore(db, "")
	s.now = func() time.Time { return at }

	if err := s.Write(context.Background(), []byte("[]")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	meta, err := s.Stat(context.Background())
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !meta.ModTime.Equal(at) {
		t.Errorf("ModTime = %v, want %v", meta.ModTime, at)
	}
	if _, ok := db.rows[DefaultKey]; !ok {
		t.Errorf("row written under %v, want default key %q", db.rows, DefaultKey)
	}
}

func TestPostgresStore_WriteError(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewPostgresStore(&fakePG{rows: map[string]fakeSnapshot{}, execErr: boom}, "bans")

	if err := s.Write(context.Background(), []byte("[]")); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want wrapping %v", err, boom)
	}
}
