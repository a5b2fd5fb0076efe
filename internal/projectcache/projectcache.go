// Package projectcache is a small bounded cache in front of
// registry.ProjectRegistry, so repeated calls for the same hot project
// within a TTL window skip the registry round trip. It is not a cache of
// RPC responses.
package projectcache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/walletgate/rpc-gateway/internal/registry"
)

type cachedDecision struct {
	decision registry.Decision
	expires  time.Time
}

// Cache wraps a registry.ProjectRegistry with a bounded, TTL'd LRU of
// recent decisions.
type Cache struct {
	inner registry.ProjectRegistry
	ttl   time.Duration
	lru   *lru.Cache
	mu    sync.Mutex
}

// New returns a Cache of at most size entries, each valid for ttl.
func New(inner registry.ProjectRegistry, size int, ttl time.Duration) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner, ttl: ttl, lru: c}, nil
}

// ValidateAccessAndQuota implements registry.ProjectRegistry, serving
// from cache when a fresh entry exists. Quota-affecting decisions
// (Allowed) are still cached for the TTL window, trading a small amount
// of quota precision for reduced registry load; a production registry
// client may want a shorter TTL than the project-metadata case.
func (c *Cache) ValidateAccessAndQuota(ctx context.Context, projectID string) (registry.Decision, error) {
	c.mu.Lock()
	if v, ok := c.lru.Get(projectID); ok {
		cached := v.(cachedDecision)
		if time.Now().Before(cached.expires) {
			c.mu.Unlock()
			return cached.decision, nil
		}
		c.lru.Remove(projectID)
	}
	c.mu.Unlock()

	decision, err := c.inner.ValidateAccessAndQuota(ctx, projectID)
	if err != nil {
		return decision, err
	}

	c.mu.Lock()
	c.lru.Add(projectID, cachedDecision{decision: decision, expires: time.Now().Add(c.ttl)})
	c.mu.Unlock()

	return decision, nil
}
