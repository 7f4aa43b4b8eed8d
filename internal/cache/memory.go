package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache (in-process).
type memoryClient struct {
	prefix string
	inner  *gocache.Cache
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string) Client {
	return &memoryClient{
		prefix: prefix,
		inner:  gocache.New(gocache.NoExpiration, 5*time.Minute),
	}
}

func (c *memoryClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	if v, ok := c.inner.Get(c.key(key)); ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return "", ErrNotFound
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.inner.Set(c.key(key), value, ttl)
	return nil
}

func (c *memoryClient) Delete(ctx context.Context, key string) error {
	c.inner.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Ping(ctx context.Context) error { return nil }
func (c *memoryClient) Close() error                   { return nil }
