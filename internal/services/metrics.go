package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's custom Prometheus metrics, supplementing
// the automatic HTTP metrics fiberprometheus registers.
type Metrics struct {
	PipelineSubscriptions prometheus.Gauge
	PipelineEventsTotal   *prometheus.CounterVec
	PipelineEventsDropped *prometheus.CounterVec

	OrchestrationsTotal   *prometheus.CounterVec
	OrchestrationDuration prometheus.Histogram
	EyeInvocationsTotal   *prometheus.CounterVec
	EyeInvocationDuration *prometheus.HistogramVec

	ProviderCallsTotal *prometheus.CounterVec
	QuotaRejections    *prometheus.CounterVec
	ProviderHealthy    prometheus.Gauge
}

var globalMetrics *Metrics

// InitMetrics registers and returns the application's Prometheus metrics.
func InitMetrics() *Metrics {
	metrics := &Metrics{
		PipelineSubscriptions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "overseer_pipeline_subscriptions_active",
			Help: "Number of active pipeline bus subscribers",
		}),
		PipelineEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "overseer_pipeline_events_total",
			Help: "Total number of pipeline events published, by event type",
		}, []string{"type"}),
		PipelineEventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "overseer_pipeline_events_dropped_total",
			Help: "Total number of pipeline events dropped for a slow subscriber",
		}, []string{"session_id"}),

		OrchestrationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "overseer_orchestrations_total",
			Help: "Total number of orchestrate() calls, by outcome",
		}, []string{"outcome"}),
		OrchestrationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "overseer_orchestration_duration_seconds",
			Help:    "Orchestration wall-clock duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		EyeInvocationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "overseer_eye_invocations_total",
			Help: "Total number of Eye invocations, by eye name and outcome",
		}, []string{"eye", "outcome"}),
		EyeInvocationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "overseer_eye_invocation_duration_seconds",
			Help:    "Eye invocation duration in seconds, by eye name",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"eye"}),

		ProviderCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "overseer_provider_calls_total",
			Help: "Total number of provider client calls, by error class",
		}, []string{"class"}),
		QuotaRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "overseer_quota_rejections_total",
			Help: "Total number of requests rejected by the quota manager",
		}, []string{"scope"}), // "tenant" or "key"
		ProviderHealthy: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "overseer_provider_healthy",
			Help: "1 if the last scheduled provider health check succeeded, 0 otherwise",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	return globalMetrics
}
