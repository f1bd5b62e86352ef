package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/city-explorer-service/internal/models"
)

// maxRelativeExp is the largest expiration memcached treats as relative seconds.
const maxRelativeExp = 30 * 24 * 60 * 60

// MemcachedCache implements Cache using memcached.
type MemcachedCache struct {
	client *memcache.Client
}

// NewMemcachedCache creates a MemcachedCache. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero.
func NewMemcachedCache(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedCache, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedCache{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Get returns false, nil on cache miss; false, err on error.
func (c *MemcachedCache) Get(ctx context.Context, query string) (models.LocationRecord, bool, error) {
	if ctx.Err() != nil {
		return models.LocationRecord{}, false, ctx.Err()
	}
	item, err := c.client.Get(Key(query))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return models.LocationRecord{}, false, nil
		}
		return models.LocationRecord{}, false, err
	}
	var rec models.LocationRecord
	if err := json.Unmarshal(item.Value, &rec); err != nil {
		return models.LocationRecord{}, false, err
	}
	return rec, true, nil
}

func (c *MemcachedCache) Set(ctx context.Context, query string, value models.LocationRecord, ttl time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(&memcache.Item{
		Key:        Key(query),
		Value:      raw,
		Expiration: memcachedExpiration(ttl),
	})
}

// memcachedExpiration converts ttl to seconds. Zero keeps the item until evicted.
func memcachedExpiration(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	sec := int64(ttl / time.Second)
	if sec < 1 {
		sec = 1
	}
	if sec > maxRelativeExp {
		sec = maxRelativeExp
	}
	return int32(sec)
}

// Ping checks if memcached is reachable. Used for health checks.
func (c *MemcachedCache) Ping(ctx context.Context) error {
	return c.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (c *MemcachedCache) Close() error {
	return c.client.Close()
}
