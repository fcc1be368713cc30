package supplemental

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    string
		wantErr error
	}{
		{name: "object", content: ptr(`{"links":[{"title":"KS AG","tags":["KS"]}]}`), want: `{"links":[{"title":"KS AG","tags":["KS"]}]}`},
		{name: "array with whitespace", content: ptr("\n  [1, 2]\n"), want: "[1, 2]"},
		{name: "invalid json", content: ptr(`{"links":`), wantErr: ErrInvalid},
		{name: "empty file", content: ptr(""), wantErr: ErrInvalid},
		{name: "missing file", wantErr: ErrRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "supplemental.json")
			if tt.content != nil {
				writeFile(t, path, *tt.content)
			}

			got, err := NewSource(path).Get(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Get() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGet_ReadsEachCallWithoutWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supplemental.json")
	writeFile(t, path, `{"v":1}`)
	src := NewSource(path)

	if got, _ := src.Get(context.Background()); string(got) != `{"v":1}` {
		t.Fatalf("Get() = %s", got)
	}
	writeFile(t, path, `{"v":2}`)
	if got, _ := src.Get(context.Background()); string(got) != `{"v":2}` {
		t.Errorf("Get() after edit = %s, want {\"v\":2}", got)
	}
}

func TestNewSource_DefaultPath(t *testing.T) {
	if got := NewSource("").Path(); got != DefaultPath {
		t.Errorf("Path() = %q, want %q", got, DefaultPath)
	}
}

func TestWatch_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supplemental.json")
	writeFile(t, path, `{"v":1}`)
	src := NewSource(path)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()

	waitFor(t, "watch to start", func() bool {
		src.mu.RLock()
		defer src.mu.RUnlock()
		return src.watching
	})

	writeFile(t, path, `{"v":`)
	waitFor(t, "invalid reload", func() bool {
		_, err := src.Get(context.Background())
		return errors.Is(err, ErrInvalid)
	})

	writeFile(t, path, `{"v":2}`)
	waitFor(t, "valid reload", func() bool {
		got, err := src.Get(context.Background())
		return err == nil && string(got) == `{"v":2}`
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "nope", "supplemental.json"))
	if err := src.Watch(context.Background()); err == nil {
		t.Error("Watch() error = nil, want error for missing directory")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func ptr(s string) *string { return &s }
