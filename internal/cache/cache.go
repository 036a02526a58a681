// Package cache provides the key-value cache behind song link lookups.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-valued cache with per-key expiration. A missing key is
// reported as a nil value, not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
	Health(ctx context.Context) error
}

// CacheError wraps a failed cache operation with its key.
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return "cache " + e.Operation + " failed for key '" + e.Key + "': " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
