package jobs

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/thirdeye/overseer/internal/provider"
)

// ProviderHealthChecker proactively warms the HealthChecker's cache on a
// fixed schedule, so /health/ready never pays the provider round trip on
// a cache miss and the healthy/unhealthy gauge reflects reality between
// probes rather than only when someone happens to hit the endpoint.
type ProviderHealthChecker struct {
	checker *provider.HealthChecker
	healthy prometheus.Gauge
	log     *slog.Logger
}

func NewProviderHealthChecker(checker *provider.HealthChecker, healthy prometheus.Gauge, log *slog.Logger) *ProviderHealthChecker {
	return &ProviderHealthChecker{checker: checker, healthy: healthy, log: log}
}

func (p *ProviderHealthChecker) Run(ctx context.Context) {
	ok, err := p.checker.Check(ctx)
	if err != nil {
		p.log.Warn("scheduled provider health check failed", "error", err)
	}
	if ok {
		p.healthy.Set(1)
	} else {
		p.healthy.Set(0)
	}
}
