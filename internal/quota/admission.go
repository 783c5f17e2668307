package quota

import (
	"context"
	"fmt"
)

// Admitter combines the tenant-level sliding window with the per-key rate
// limiter. Tenant quota takes precedence: the key limiter is never
// consulted once the tenant has denied.
type Admitter struct {
	tenants Manager
	keys    *KeyLimiter
}

func NewAdmitter(tenants Manager, keys *KeyLimiter) *Admitter {
	return &Admitter{tenants: tenants, keys: keys}
}

// Admit runs the tenant check, then the key check, in that order.
func (a *Admitter) Admit(ctx context.Context, tenantID string, tenantLimit int64, keyID string, keyLimitPerMinute int64) (admitted bool, currentUsage int64, err error) {
	decision, err := a.tenants.CheckAndIncrement(ctx, tenantID, tenantLimit)
	if err != nil {
		return false, 0, fmt.Errorf("tenant quota check: %w", err)
	}
	if !decision.Admitted {
		return false, decision.CurrentUsage, nil
	}

	if !a.keys.Allow(keyID, keyLimitPerMinute) {
		return false, decision.CurrentUsage, nil
	}

	return true, decision.CurrentUsage, nil
}
