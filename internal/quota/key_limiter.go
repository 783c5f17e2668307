package quota

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyLimiter enforces each API key's own requests-per-minute limit, checked
// after the tenant's sliding-window quota admits the request.
type KeyLimiter struct {
	limiters sync.Map // keyID -> *rate.Limiter
}

func NewKeyLimiter() *KeyLimiter {
	return &KeyLimiter{}
}

// Allow reports whether a request for keyID is within its per-minute limit,
// lazily creating a token bucket sized for that limit on first use.
func (kl *KeyLimiter) Allow(keyID string, requestsPerMinute int64) bool {
	limiter := kl.getOrCreate(keyID, requestsPerMinute)
	return limiter.Allow()
}

func (kl *KeyLimiter) getOrCreate(keyID string, requestsPerMinute int64) *rate.Limiter {
	if l, ok := kl.limiters.Load(keyID); ok {
		return l.(*rate.Limiter)
	}

	perSecond := float64(requestsPerMinute) / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := int(requestsPerMinute)
	if burst < 1 {
		burst = 1
	}

	newLimiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	actual, _ := kl.limiters.LoadOrStore(keyID, newLimiter)
	return actual.(*rate.Limiter)
}

// Forget drops a key's limiter, used on revocation so a revoked key's state
// doesn't linger forever in the map.
func (kl *KeyLimiter) Forget(keyID string) {
	kl.limiters.Delete(keyID)
}
