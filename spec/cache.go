package spec

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Paranoid-AF/hollow/shape"
	"github.com/jellydator/ttlcache/v3"
)

// Cache memoizes loaded graphs per service. Graphs are immutable, so one
// cache can be shared by every fixture in a process.
type Cache struct {
	loader Loader
	cache  *ttlcache.Cache[string, *shape.Graph]

	// mu serializes loads so that a service is parsed once.
	mu sync.Mutex
}

// NewCache wraps loader. A ttl of zero keeps graphs until Close.
func NewCache(loader Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	c := ttlcache.New[string, *shape.Graph](
		ttlcache.WithTTL[string, *shape.Graph](ttl),
		ttlcache.WithDisableTouchOnHit[string, *shape.Graph](),
	)
	go c.Start()
	return &Cache{loader: loader, cache: c}
}

// Load implements Loader, serving repeated requests from the cache.
func (c *Cache) Load(service string) (*shape.Graph, error) {
	if item := c.cache.Get(service); item != nil {
		return item.Value(), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if item := c.cache.Get(service); item != nil {
		return item.Value(), nil
	}

	g, err := c.loader.Load(service)
	if err != nil {
		return nil, err
	}
	c.cache.Set(service, g, ttlcache.DefaultTTL)
	slog.Debug("cached service specification", "service", service)
	return g, nil
}

// Len returns the number of cached graphs.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// Close stops the cache expiration loop.
func (c *Cache) Close() {
	c.cache.Stop()
}
