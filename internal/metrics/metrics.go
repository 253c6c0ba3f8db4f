// Package metrics exposes pipeline counters and latencies in the
// Prometheus format.
//
// Metrics live in a dedicated registry together with the Go runtime and
// process collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "localrag"

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Registry holds every localrag metric.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// ParagraphsIngested counts stored paragraphs by chunking strategy.
	ParagraphsIngested = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "paragraphs_ingested_total",
			Help:      "Paragraphs stored by chunking strategy.",
		},
		[]string{"strategy"},
	)

	// EmbeddingBatches counts embedding requests by outcome.
	EmbeddingBatches = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_batches_total",
			Help:      "Embedding batch requests by status.",
		},
		[]string{"status"},
	)

	// EmbeddingDuration records embedding request latency.
	EmbeddingDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Latency of one embedding batch request.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// LLMDuration records LLM request latency by purpose.
	LLMDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of one LLM request.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"purpose", "status"},
	)

	// Queries counts questions and searches by rerank mode.
	Queries = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries by operation and rerank mode.",
		},
		[]string{"operation", "rerank"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// ObserveEmbedding records one embedding batch request.
func ObserveEmbedding(d time.Duration, err error) {
	EmbeddingBatches.WithLabelValues(status(err)).Inc()
	EmbeddingDuration.Observe(d.Seconds())
}

// ObserveLLM records one LLM request made for purpose ("answer", "rerank").
func ObserveLLM(purpose string, d time.Duration, err error) {
	LLMDuration.WithLabelValues(purpose, status(err)).Observe(d.Seconds())
}

// AddParagraphs counts n stored paragraphs of a strategy.
func AddParagraphs(strategy string, n int) {
	ParagraphsIngested.WithLabelValues(strategy).Add(float64(n))
}

// CountQuery records a query. rerank is the reranker name or "none".
func CountQuery(operation, rerank string) {
	Queries.WithLabelValues(operation, rerank).Inc()
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
