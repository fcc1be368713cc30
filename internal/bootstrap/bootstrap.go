// Package bootstrap builds the record pipeline (fetcher, snapshot store,
// cache gateway) from configuration. The server and the CLI share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/banboard/internal/cache"
	"github.com/JonMunkholm/banboard/internal/config"
	"github.com/JonMunkholm/banboard/internal/fetch"
	"github.com/JonMunkholm/banboard/internal/metrics"
	"github.com/JonMunkholm/banboard/internal/sheet"
	"github.com/JonMunkholm/banboard/internal/snapshot"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pipeline is a configured gateway together with the resources it holds.
type Pipeline struct {
	Gateway *cache.Gateway
	Store   snapshot.Store
	closers []func()
}

// Close releases the store's connections.
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// ParseOptions converts the sheet settings into parser options.
func ParseOptions(cfg config.SheetConfig) sheet.Options {
	opts := sheet.DefaultOptions()
	opts.Sentinel = cfg.Sentinel
	opts.SentinelColumn = cfg.SentinelColumn
	opts.ReservedKeys = cfg.ReservedKeys
	return opts
}

// NewFetcher returns the HTTP fetcher configured by cfg.
func NewFetcher(cfg config.SheetConfig) *fetch.HTTPFetcher {
	return fetch.NewHTTPFetcher(
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithMaxBytes(cfg.MaxBytes),
		fetch.WithUserAgent(cfg.UserAgent),
	)
}

// OpenStore opens the snapshot backend selected by CACHE_BACKEND. The
// returned function releases it.
func OpenStore(ctx context.Context, cfg *config.Config) (snapshot.Store, func(), error) {
	switch strings.ToLower(cfg.Cache.Backend) {
	case config.BackendFile, "":
		return snapshot.NewFileStore(cfg.Cache.Path), func() {}, nil

	case config.BackendMemory:
		return snapshot.NewMemoryStore(nil), func() {}, nil

	case config.BackendSQLite:
		store, err := snapshot.OpenSQLiteStore(ctx, cfg.SQLite.Path, cfg.Cache.Key)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Warn("close sqlite store", "error", err)
			}
		}, nil

	case config.BackendPostgres:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store := snapshot.NewPostgresStore(pool, cfg.Cache.Key)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// openPool connects to PostgreSQL with the configured pool limits.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is not set")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

// Build opens the store and wires a gateway to fetcher. A nil fetcher uses
// NewFetcher. m may be nil.
func Build(ctx context.Context, cfg *config.Config, fetcher fetch.Fetcher, m *metrics.Metrics) (*Pipeline, error) {
	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s snapshot store: %w", cfg.Cache.Backend, err)
	}
	if fetcher == nil {
		fetcher = NewFetcher(cfg.Sheet)
	}

	gw := cache.New(fetcher, store, cfg.Sheet.URL, cfg.Cache.TTL,
		cache.WithParseOptions(ParseOptions(cfg.Sheet)),
		cache.WithMetrics(m),
		cache.WithSingleFlight(cfg.Cache.SingleFlight, cfg.Cache.Key),
	)

	return &Pipeline{Gateway: gw, Store: store, closers: []func(){closeStore}}, nil
}
