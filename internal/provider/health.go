package provider

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const healthCacheKey = "provider_health"

// HealthChecker runs a trivial "reply OK" completion against the
// provider with a 5s timeout, caching the result for 30s so a burst of
// readiness probes doesn't hammer the provider. Concurrent callers that
// land inside the same cache miss share one in-flight call.
type HealthChecker struct {
	client  *Client
	cache   *cache.Cache
	group   singleflight.Group
	timeout time.Duration
}

func NewHealthChecker(client *Client, cacheTTL time.Duration) *HealthChecker {
	return &HealthChecker{
		client:  client,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		timeout: 5 * time.Second,
	}
}

// Check reports whether the provider is currently reachable, using the
// cached result when fresh.
func (h *HealthChecker) Check(ctx context.Context) (bool, error) {
	if cached, found := h.cache.Get(healthCacheKey); found {
		return cached.(bool), nil
	}

	result, err, _ := h.group.Do(healthCacheKey, func() (any, error) {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()

		_, callErr := h.client.Complete(checkCtx, []Message{
			{Role: "user", Content: "Reply with OK."},
		})
		healthy := callErr == nil
		h.cache.Set(healthCacheKey, healthy, cache.DefaultExpiration)
		return healthy, callErr
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}
