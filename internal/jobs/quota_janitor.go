package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/thirdeye/overseer/internal/quota"
)

// QuotaJanitor sweeps idle tenant sliding windows out of the in-memory
// quota manager. Only the in-memory backend needs this: RedisManager's
// sub-buckets expire themselves via TTL.
type QuotaJanitor struct {
	manager *quota.MemoryManager
	log     *slog.Logger
}

// NewQuotaJanitor returns nil when manager is not a *quota.MemoryManager
// (i.e. quota tracking is backed by Redis), since there is nothing to
// sweep in that case.
func NewQuotaJanitor(manager quota.Manager, log *slog.Logger) *QuotaJanitor {
	mem, ok := manager.(*quota.MemoryManager)
	if !ok {
		return nil
	}
	return &QuotaJanitor{manager: mem, log: log}
}

func (j *QuotaJanitor) Run(ctx context.Context) {
	removed := j.manager.SweepIdle(time.Now())
	if removed > 0 {
		j.log.Debug("quota janitor swept idle tenant windows", "removed", removed)
	}
}
