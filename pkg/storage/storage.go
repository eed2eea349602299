package storage

import "context"

// Storage is the write/query hook the engine hands its round records and
// weight snapshots to. Aggregation state lives in memory; a Storage
// failure must never corrupt it, so callers treat errors as log-and-go.
type Storage interface {
	Put(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, value any) error
	List(ctx context.Context, prefix string, offset, limit uint64) ([]string, uint64, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
