package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts completed analyses by modality and outcome
	// (structured, heuristic, error).
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimcheck",
		Subsystem: "analyzer",
		Name:      "analyses_total",
		Help:      "Total number of analyses performed, labeled by modality and outcome.",
	}, []string{"modality", "outcome"})

	// ModelRequestDuration is the latency of generative model calls.
	ModelRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "claimcheck",
		Subsystem: "analyzer",
		Name:      "model_request_duration_seconds",
		Help:      "Latency of generative model invocations, labeled by provider.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"provider"})

	// TranslationsTotal counts whole-result translations by outcome.
	TranslationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimcheck",
		Subsystem: "analyzer",
		Name:      "translations_total",
		Help:      "Total number of result translations attempted, labeled by target language and outcome.",
	}, []string{"language", "outcome"})

	// ClaimPollAttempts tracks how many polls each backend claim needed.
	ClaimPollAttempts = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "claimcheck",
		Subsystem: "analyzer",
		Name:      "claim_poll_attempts",
		Help:      "Number of poll calls issued per backend claim before a terminal state.",
		Buckets:   []float64{1, 2, 3, 5, 10, 15, 20, 30},
	})

	// RabbitMQConnected is 1 when the subscriber considers itself connected.
	RabbitMQConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "claimcheck",
		Subsystem: "analyzer",
		Name:      "rabbitmq_connected",
		Help:      "Whether the analyzer RabbitMQ subscriber is currently connected (best-effort).",
	})

	// WorkerInFlight is the current number of deliveries being processed by workers.
	WorkerInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "claimcheck",
		Subsystem: "analyzer",
		Name:      "rabbitmq_worker_in_flight",
		Help:      "Current number of RabbitMQ deliveries being processed by worker goroutines.",
	})

	// ProcessedTotal counts processed deliveries by outcome.
	ProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "claimcheck",
		Subsystem: "analyzer",
		Name:      "rabbitmq_processed_total",
		Help:      "Total number of RabbitMQ deliveries processed by the analyzer subscriber, labeled by result.",
	}, []string{"result"})

	// ProcessingDurationSeconds is end-to-end time per delivery, measured inside the worker.
	ProcessingDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "claimcheck",
		Subsystem: "analyzer",
		Name:      "rabbitmq_processing_duration_seconds",
		Help:      "End-to-end time to process a RabbitMQ delivery (callback + ack/nack).",
		// Keep buckets fairly coarse to avoid high-cardinality time series.
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60, 120, 300},
	}, []string{"result"})
)

// Register registers analyzer metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			ModelRequestDuration,
			TranslationsTotal,
			ClaimPollAttempts,
			RabbitMQConnected,
			WorkerInFlight,
			ProcessedTotal,
			ProcessingDurationSeconds,
		)
	})
}
