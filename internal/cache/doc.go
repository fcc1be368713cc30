// Package cache serves the current record set from a persisted snapshot and
// refreshes it from the published sheet when the snapshot is too old.
//
// # Freshness
//
// The snapshot carries no timestamp of its own. Its age is the store's
// last-write time subtracted from the gateway clock. A snapshot younger than
// the TTL is served as-is; anything else (missing, expired, unreadable,
// written in the future) triggers a full refetch that overwrites it.
//
// # Failures
//
// Errors returned by [Gateway.GetCurrent] wrap one of [ErrFetch] or
// [ErrDecode] so callers can tell them apart with errors.Is. Storage
// problems never fail a call: a bad read falls through to a refetch and a
// failed write only costs the next caller another fetch.
//
// # Concurrency
//
// By default nothing coordinates concurrent misses. Each one fetches on its
// own and overwrites the snapshot, and the last writer wins. [WithSingleFlight]
// collapses concurrent misses into one fetch whose result every waiter shares.
package cache
