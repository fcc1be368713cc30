package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/banboard/internal/fetch"
	"github.com/JonMunkholm/banboard/internal/logging"
	"github.com/JonMunkholm/banboard/internal/metrics"
	"github.com/JonMunkholm/banboard/internal/sheet"
	"github.com/JonMunkholm/banboard/internal/snapshot"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a snapshot is served before it is refetched.
const DefaultTTL = 12 * time.Hour

// Gateway serves records from the snapshot store, refreshing it from the
// sheet export when it is missing or older than the TTL.
type Gateway struct {
	fetcher fetch.Fetcher
	store   snapshot.Store
	url     string
	ttl     time.Duration
	parse   sheet.Options
	now     func() time.Time
	metrics *metrics.Metrics

	// flight is nil unless single-flight refreshes are enabled.
	flight    *singleflight.Group
	flightKey string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock replaces time.Now for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithParseOptions overrides the sheet layout options.
func WithParseOptions(opts sheet.Options) Option {
	return func(g *Gateway) { g.parse = opts }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithSingleFlight makes concurrent misses share one fetch. key separates
// gateways that share a process; an empty key uses the URL.
func WithSingleFlight(enabled bool, key string) Option {
	return func(g *Gateway) {
		if !enabled {
			g.flight = nil
			return
		}
		g.flight = &singleflight.Group{}
		g.flightKey = key
	}
}

// New creates a Gateway that fetches url and keeps the result in store for ttl.
// A ttl of zero or less uses DefaultTTL.
func New(fetcher fetch.Fetcher, store snapshot.Store, url string, ttl time.Duration, opts ...Option) *Gateway {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	g := &Gateway{
		fetcher: fetcher,
		store:   store,
		url:     url,
		ttl:     ttl,
		parse:   sheet.DefaultOptions(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.flight != nil && g.flightKey == "" {
		g.flightKey = url
	}
	return g
}

// TTL returns the configured time-to-live.
func (g *Gateway) TTL() time.Duration {
	return g.ttl
}

// GetCurrent returns the snapshot if it is fresh, otherwise fetches, parses
// and persists a new one. The returned records may be shared with other
// callers and must not be modified.
func (g *Gateway) GetCurrent(ctx context.Context) ([]sheet.Record, error) {
	if records, ok := g.readFresh(ctx); ok {
		g.metrics.ObserveLookup(metrics.ResultHit)
		g.metrics.ObserveRecords(len(records))
		return records, nil
	}

	g.metrics.ObserveLookup(metrics.ResultMiss)
	return g.refresh(ctx, true)
}

// Refresh fetches and persists a new snapshot regardless of the current
// snapshot's age.
func (g *Gateway) Refresh(ctx context.Context) ([]sheet.Record, error) {
	return g.refresh(ctx, false)
}

// Status describes the stored snapshot.
type Status struct {
	Exists  bool          `json:"exists"`
	Fresh   bool          `json:"fresh"`
	Age     time.Duration `json:"age_ns"`
	TTL     time.Duration `json:"ttl_ns"`
	ModTime time.Time     `json:"mod_time,omitzero"`
	Size    int64         `json:"size_bytes"`
}

// Status reports the snapshot's existence and age without loading it.
func (g *Gateway) Status(ctx context.Context) (Status, error) {
	meta, err := g.store.Stat(ctx)
	if err != nil {
		g.metrics.ObserveStorageError("stat")
		return Status{TTL: g.ttl}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	st := Status{Exists: meta.Exists, TTL: g.ttl, ModTime: meta.ModTime, Size: meta.Size}
	if age, ok := meta.Age(g.now()); ok {
		st.Age = age
		st.Fresh = age < g.ttl
	}
	return st, nil
}

// readFresh returns the stored records when the snapshot is younger than the
// TTL. Any storage problem is logged and reported as not fresh.
func (g *Gateway) readFresh(ctx context.Context) ([]sheet.Record, bool) {
	logger := logging.FromContext(ctx)

	meta, err := g.store.Stat(ctx)
	if err != nil {
		g.metrics.ObserveStorageError("stat")
		logger.Warn("snapshot stat failed, refetching", "error", err)
		return nil, false
	}

	age, ok := meta.Age(g.now())
	if !ok || age >= g.ttl {
		if meta.Exists {
			logger.Debug("snapshot stale", "snapshot_age", age, "ttl", g.ttl)
		}
		return nil, false
	}

	data, err := g.store.Read(ctx)
	if err != nil {
		g.metrics.ObserveStorageError("read")
		logger.Warn("snapshot read failed, refetching", "error", err)
		return nil, false
	}

	var records []sheet.Record
	if err := json.Unmarshal(data, &records); err != nil {
		g.metrics.ObserveStorageError("read")
		logger.Warn("snapshot is not valid JSON, refetching", "error", err)
		return nil, false
	}
	if records == nil {
		records = []sheet.Record{}
	}

	logger.Debug("using cached data", "snapshot_age", age, "records", len(records))
	return records, true
}

// refresh runs load, through the single-flight group when enabled. Joiners
// share the leader's result; the leader runs detached from its caller's
// cancellation so one disconnecting client does not fail the others.
func (g *Gateway) refresh(ctx context.Context, recheck bool) ([]sheet.Record, error) {
	if g.flight == nil {
		return g.load(ctx)
	}

	key := g.flightKey
	if !recheck {
		key += "#forced"
	}

	ch := g.flight.DoChan(key, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		// A caller that lost the race to a just-finished flight would
		// otherwise fetch again.
		if recheck {
			if records, ok := g.readFresh(detached); ok {
				return records, nil
			}
		}
		return g.load(detached)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]sheet.Record), nil
	}
}

// load is the miss path: fetch, normalize, persist, return.
func (g *Gateway) load(ctx context.Context) ([]sheet.Record, error) {
	logger := logging.WithFields(ctx, "refresh_id", uuid.NewString())
	start := time.Now()

	logger.Info("fetching fresh sheet data", "url", g.url)

	raw, err := g.fetcher.Fetch(ctx, g.url)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetch, err)
		g.metrics.ObserveRefreshError(string(KindOf(err)))
		return nil, err
	}

	res, err := sheet.Parse(raw, g.parse)
	if err != nil {
		g.metrics.ObserveRefreshError(string(KindDecode))
		return nil, fmt.Errorf("normalize sheet: %w", err)
	}

	logger.Debug("parsed sheet",
		"delimiter", string(res.Delimiter),
		"header_found", res.HeaderFound,
		"header", res.Header,
		"preamble_rows", res.Skipped,
	)
	if !res.HeaderFound {
		logger.Warn("no header row found, snapshot will be empty",
			"sentinel", g.parse.Sentinel,
			"sentinel_column", g.parse.SentinelColumn,
		)
	}

	data, err := json.MarshalIndent(res.Records, "", "  ")
	if err != nil {
		g.metrics.ObserveStorageError("write")
		logger.Warn("failed to encode snapshot", "error", err)
	} else if err := g.store.Write(ctx, data); err != nil {
		g.metrics.ObserveStorageError("write")
		logger.Warn("failed to persist snapshot, next request will refetch", "error", err)
	} else {
		logger.Info("saved new data to cache",
			"records", len(res.Records),
			"bytes", len(data),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	g.metrics.ObserveRefresh(time.Since(start), len(res.Records))
	return res.Records, nil
}
