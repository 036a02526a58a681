package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errClosed = errors.New("cache closed")

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a process-local cache used when no Valkey URL is
// configured. Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return nil, nil
	}
	return entry.value, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expiration > 0 {
		entry.expires = time.Now().Add(expiration)
	}

	c.mu.Lock()
	if c.data == nil {
		c.mu.Unlock()
		return &CacheError{Operation: "set", Key: key, Err: errClosed}
	}
	c.data[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	value, err := c.Get(ctx, key)
	return value != nil, err
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Health(ctx context.Context) error {
	return nil
}
