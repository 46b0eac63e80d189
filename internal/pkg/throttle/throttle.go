// Package throttle provides per-key request limits backed by Redis (shared
// across replicas) or by in-process token buckets.
package throttle

import (
	"context"
	"time"
)

// Throttle answers whether an action keyed by key may run now.
//
// A false result carries how long the caller should wait before retrying.
type Throttle interface {
	// Cooldown admits one action per key every d.
	Cooldown(ctx context.Context, key string, d time.Duration) (ok bool, retryAfter time.Duration, err error)
	// Allow admits up to limit actions per key within window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (ok bool, retryAfter time.Duration, err error)
	// Reset forgets all state for key.
	Reset(ctx context.Context, key string) error
}
