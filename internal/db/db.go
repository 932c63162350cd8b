package db

import (
	"context"
	"time"
)

// Store is the relational database facade used by the search layer.
type Store interface {
	Pinger
	Querier
	Close() error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Querier runs read-only SQL and scans all rows into dest (a pointer to a slice of structs).
// Placeholders are positional "?".
type Querier interface {
	Select(ctx context.Context, dest any, query string, args ...any) error
}

// KVStore provides the key-value operations behind the response cache.
type KVStore interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close()
}
