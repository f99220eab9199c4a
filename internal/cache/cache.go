// Package cache memoizes ranking and discovery results. Keys are derived
// from a hash of the full input, so a stale entry can only be returned for
// an identical input.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

const keyPrefix = "cookoff"

// Cache stores JSON-serializable results
type Cache interface {
	// Get decodes the value stored under key into dst. It reports false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value under key
	Set(ctx context.Context, key string, value any) error

	// Invalidate removes every key of a kind and returns how many were removed
	Invalidate(ctx context.Context, kind string) (int, error)

	// HealthCheck checks if the backend is reachable
	HealthCheck(ctx context.Context) error

	Close() error
}

// Key builds the cache key for a computation of the given kind over input
func Key(kind string, input any) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache input: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, hex.EncodeToString(sum[:])), nil
}

func kindPrefix(kind string) string {
	return fmt.Sprintf("%s:%s:", keyPrefix, kind)
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error)  { return false, nil }
func (NopCache) Set(context.Context, string, any) error          { return nil }
func (NopCache) Invalidate(context.Context, string) (int, error) { return 0, nil }
func (NopCache) HealthCheck(context.Context) error               { return nil }
func (NopCache) Close() error                                    { return nil }

// MemoryCache keeps encoded values in process memory without expiry
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	data, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached value: %w", err)
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	c.mu.Lock()
	c.items[key] = data
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, kind string) (int, error) {
	prefix := kindPrefix(kind)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed, nil
}

func (c *MemoryCache) HealthCheck(context.Context) error { return nil }

func (c *MemoryCache) Close() error { return nil }

// Len returns the number of stored entries
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
