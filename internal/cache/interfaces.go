package cache

import (
	"context"
	"time"
)

// Cache memoizes upstream asset responses (icons, passes, game records).
// MemoryCache serves single-instance deployments; RedisCache lets several
// instances share lookups.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// GetOrSet retrieves a value or computes and stores it if missing.
	// Errors from fn are returned as-is and nothing is stored.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error)

	// Len reports the number of live entries.
	Len(ctx context.Context) (int64, error)

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error
}

// CacheError is a constant cache error.
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"
)
