package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	SessionEvents    *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	Resolutions      *prometheus.CounterVec
	KnowledgeInserts *prometheus.CounterVec
	ResolveLatency   prometheus.Histogram

	resolveWindow *resolveStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of active chat sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Collaborator errors by provider.",
		}, []string{"provider"}),
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolved utterances by answer source.",
		}, []string{"source"}),
		KnowledgeInserts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_inserts_total",
			Help:      "Knowledge entries accreted by origin.",
		}, []string{"origin"}),
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_latency_ms",
			Help:      "End-to-end utterance resolution latency in milliseconds.",
			Buckets:   []float64{5, 20, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		resolveWindow: newResolveStageWindow(256),
	}
}

// ObserveResolveStage records one stage latency into the sliding window
// behind /v1/perf/latency.
func (m *Metrics) ObserveResolveStage(stage string, d time.Duration) {
	m.resolveWindow.Observe(stage, float64(d.Microseconds())/1000.0)
}

// SnapshotResolveStages returns per-stage latency percentiles over the window.
func (m *Metrics) SnapshotResolveStages() ResolveStageSnapshot {
	return m.resolveWindow.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
