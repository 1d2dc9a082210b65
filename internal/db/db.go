// Package db declares the storage contracts shared by the rueidis and
// in-memory backends. Repositories depend on the narrow interfaces only.
package db

import (
	"context"
	"time"
)

// Store is everything a key-value backend provides to the service.
type Store interface {
	Pinger
	HashStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger is used by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore backs the question repository: one hash per question.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore backs the result cache: serialized scores under hashed keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
