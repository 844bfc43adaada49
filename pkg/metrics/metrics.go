package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ClosureDetections         *prometheus.CounterVec
	IntentClassifications     *prometheus.CounterVec
	TimersStarted             *prometheus.CounterVec
	TimersFired               *prometheus.CounterVec
	TimersCanceled            *prometheus.CounterVec
	IdleNudgesInjected        prometheus.Counter
	ActiveCountdowns          prometheus.Gauge
	EmbeddingCacheHits        prometheus.Counter
	EmbeddingCacheMisses      prometheus.Counter
	EmbeddingRequestDuration  prometheus.Histogram
	CompletionRequestDuration prometheus.Histogram
	DetectionDuration         prometheus.Histogram
}

// NewMetrics registers on the default registry. Tests that build multiple
// instances in one process should use NewMetricsWith and a fresh registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClosureDetections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "closure_detections_total",
			Help: "Total number of closure detection calls by result",
		}, []string{"result"}),
		IntentClassifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intent_classifications_total",
			Help: "Total number of intent classifications by label",
		}, []string{"label"}),
		TimersStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "timers_started_total",
			Help: "Total number of auto-close countdowns started",
		}, []string{"mode"}),
		TimersFired: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "timers_fired_total",
			Help: "Total number of contacts closed by mode and cause",
		}, []string{"mode", "cause"}),
		TimersCanceled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "timers_canceled_total",
			Help: "Total number of countdowns canceled by reason",
		}, []string{"reason"}),
		IdleNudgesInjected: factory.NewCounter(prometheus.CounterOpts{
			Name: "idle_nudges_total",
			Help: "Total number of synthetic idle nudge messages injected",
		}),
		ActiveCountdowns: factory.NewGauge(prometheus.GaugeOpts{
			Name: "active_countdowns",
			Help: "Current number of conversations with a running countdown",
		}),
		EmbeddingCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total number of embedding cache hits",
		}),
		EmbeddingCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Total number of embedding cache misses",
		}),
		EmbeddingRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Time taken for remote embedding requests",
			Buckets: prometheus.DefBuckets,
		}),
		CompletionRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "completion_request_duration_seconds",
			Help:    "Time taken for remote completion requests",
			Buckets: prometheus.DefBuckets,
		}),
		DetectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "closure_detection_duration_seconds",
			Help:    "Time taken for one closure detection end to end",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
