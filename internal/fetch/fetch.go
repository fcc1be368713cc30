// Package fetch retrieves the raw spreadsheet export over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/banboard/internal/logging"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultMaxBytes caps the size of a fetched export (32MB).
const DefaultMaxBytes = 32 << 20

// DefaultTimeout bounds a single HTTP round trip including the body read.
const DefaultTimeout = 30 * time.Second

// previewLen is how much of the response is echoed to the debug log.
const previewLen = 500

// ErrTooLarge is returned when the response body exceeds the configured limit.
var ErrTooLarge = errors.New("response body too large")

// Fetcher retrieves the raw text behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s from %s", e.Status, e.URL)
}

// HTTPFetcher is a Fetcher backed by net/http.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithTimeout sets the client timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) { f.client.Timeout = d }
}

// WithMaxBytes sets the body size limit. Zero or negative keeps the default.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// NewHTTPFetcher creates an HTTPFetcher with DefaultTimeout and DefaultMaxBytes.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url and returns the body as UTF-8 text. A charset declared in
// Content-Type is decoded; otherwise invalid UTF-8 bytes are replaced.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	logger := logging.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body := NewLimitedCountingReader(resp.Body, f.maxBytes)
	r, err := decodeBody(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	text := string(data)

	logger.Debug("fetched sheet export",
		"status", resp.StatusCode,
		"bytes", body.BytesRead,
		"duration_ms", time.Since(start).Milliseconds(),
		"preview", preview(text),
	)

	return text, nil
}

// decodeBody picks a decoder from the Content-Type charset.
func decodeBody(r io.Reader, contentType string) (io.Reader, error) {
	charset := ""
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			charset = strings.ToLower(strings.TrimSpace(params["charset"]))
		}
	}

	switch charset {
	case "", "utf-8", "utf8", "us-ascii":
		return NewUTF8Sanitizer(r), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(r), nil
}

func preview(s string) string {
	if len(s) <= previewLen {
		return s
	}
	cut := previewLen
	// back up to a rune boundary
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
