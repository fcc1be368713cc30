// Package supplemental serves the hand-maintained JSON document that sits next
// to the sheet data: external links and notes shown on the dashboard. Its
// content is opaque; it only has to be valid JSON.
package supplemental

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/banboard/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultPath is the supplemental document read when none is configured.
const DefaultPath = "supplemental.json"

// debounceDelay coalesces editor save bursts into one reload.
const debounceDelay = 100 * time.Millisecond

var (
	// ErrRead wraps failures to read the document.
	ErrRead = errors.New("read supplemental file")
	// ErrInvalid reports a document that is not valid JSON.
	ErrInvalid = errors.New("invalid supplemental JSON")
)

// Source loads the supplemental document from disk. Without a running Watch
// every Get reads the file; while Watch runs, Get serves the last reload.
type Source struct {
	path string

	mu       sync.RWMutex
	data     json.RawMessage
	err      error
	watching bool
}

// NewSource returns a Source for path. An empty path uses DefaultPath.
func NewSource(path string) *Source {
	if path == "" {
		path = DefaultPath
	}
	return &Source{path: path}
}

// Path returns the watched file path.
func (s *Source) Path() string {
	return s.path
}

// Get returns the document verbatim.
func (s *Source) Get(ctx context.Context) (json.RawMessage, error) {
	s.mu.RLock()
	if s.watching {
		data, err := s.data, s.err
		s.mu.RUnlock()
		return data, err
	}
	s.mu.RUnlock()

	return s.load()
}

// load reads and validates the file.
func (s *Source) load() (json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, s.path)
	}
	return json.RawMessage(data), nil
}

// reload refreshes the cached document.
func (s *Source) reload(ctx context.Context) {
	data, err := s.load()

	s.mu.Lock()
	s.data, s.err = data, err
	s.mu.Unlock()

	logger := logging.FromContext(ctx)
	if err != nil {
		logger.Warn("supplemental reload failed", "path", s.path, "error", err)
		return
	}
	logger.Info("supplemental reloaded", "path", s.path, "bytes", len(data))
}

// Watch keeps the cached document in sync with the file until ctx is done.
// The parent directory is watched so that atomic replace-by-rename saves are
// seen. Watch blocks; run it in its own goroutine.
func (s *Source) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(s.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	s.reload(ctx)
	s.mu.Lock()
	s.watching = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watching = false
		s.mu.Unlock()
	}()

	name := filepath.Clean(s.path)
	changed := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
		case <-changed:
			s.reload(ctx)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.FromContext(ctx).Warn("supplemental watcher error", "error", err)
		}
	}
}
