package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/kjstillabower/city-explorer-service/internal/models"
)

const keyPrefix = "location:"

// Cache is the optional front cache for resolved locations, consulted before
// the location store. Get returns cached data if present and not expired; Set
// stores data with TTL. A TTL of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, query string) (models.LocationRecord, bool, error)
	Set(ctx context.Context, query string, value models.LocationRecord, ttl time.Duration) error
}

// Backend is a Cache with a connection lifecycle, used for health checks and shutdown.
type Backend interface {
	Cache
	Ping(ctx context.Context) error
	Close() error
}

// Key maps an exact search query to a storage key. Queries are hashed so
// arbitrary user input is safe as a memcached key.
func Key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// InMemoryCache implements Cache using a map with TTL-based expiration.
// Expired entries are removed on access. Safe for concurrent use.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
}

type cacheEntry struct {
	value     models.LocationRecord
	expiresAt time.Time // zero means no expiry
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
	}
}

// Get returns (record, true, nil) on hit, (zero, false, nil) on miss or expiration.
func (c *InMemoryCache) Get(ctx context.Context, query string) (models.LocationRecord, bool, error) {
	key := Key(query)
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return models.LocationRecord{}, false, nil
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.data[key]; ok && cur.expiresAt.Equal(entry.expiresAt) {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return models.LocationRecord{}, false, nil
	}

	return entry.value, true, nil
}

func (c *InMemoryCache) Set(ctx context.Context, query string, value models.LocationRecord, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.data[Key(query)] = cacheEntry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *InMemoryCache) Ping(ctx context.Context) error { return nil }

func (c *InMemoryCache) Close() error { return nil }
