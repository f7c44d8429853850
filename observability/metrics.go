package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type gatewayMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

type swapMetrics struct {
	executions *prometheus.CounterVec
	rollbacks  *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

type aggregatorMetrics struct {
	quotes  *prometheus.CounterVec
	skipped *prometheus.CounterVec
}

var (
	gatewayMetricsOnce sync.Once
	gatewayRegistry    *gatewayMetrics

	swapMetricsOnce sync.Once
	swapRegistry    *swapMetrics

	aggregatorMetricsOnce sync.Once
	aggregatorRegistry    *aggregatorMetrics
)

// Gateway returns the lazily-initialised metrics registry recording REST
// gateway activity.
func Gateway() *gatewayMetrics {
	gatewayMetricsOnce.Do(func() {
		gatewayRegistry = &gatewayMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mosaica",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total gateway requests segmented by route and outcome.",
			}, []string{"route", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mosaica",
				Subsystem: "gateway",
				Name:      "errors_total",
				Help:      "Total gateway errors segmented by route and status code.",
			}, []string{"route", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "mosaica",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for gateway handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
		}
		prometheus.MustRegister(
			gatewayRegistry.requests,
			gatewayRegistry.errors,
			gatewayRegistry.latency,
		)
	})
	return gatewayRegistry
}

// Observe records the outcome of a gateway request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *gatewayMetrics) Observe(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route = strings.TrimSpace(route); route == "" {
		route = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
		m.errors.WithLabelValues(route, statusLabel(status)).Inc()
	}
	m.requests.WithLabelValues(route, outcome).Inc()
	m.latency.WithLabelValues(route).Observe(duration.Seconds())
}

// Swaps returns the metrics registry tracking swap batch execution.
func Swaps() *swapMetrics {
	swapMetricsOnce.Do(func() {
		swapRegistry = &swapMetrics{
			executions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mosaica",
				Subsystem: "swap",
				Name:      "batches_total",
				Help:      "Count of swap batches segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mosaica",
				Subsystem: "swap",
				Name:      "rollbacks_total",
				Help:      "Count of swap batches rolled back segmented by operation.",
			}, []string{"operation"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "mosaica",
				Subsystem: "swap",
				Name:      "batch_duration_seconds",
				Help:      "Latency distribution for swap batch execution.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
		}
		prometheus.MustRegister(
			swapRegistry.executions,
			swapRegistry.rollbacks,
			swapRegistry.latency,
		)
	})
	return swapRegistry
}

// ObserveBatch records a swap batch execution. A non-nil err counts as a
// rollback for the operation.
func (m *swapMetrics) ObserveBatch(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		m.rollbacks.WithLabelValues(op).Inc()
	}
	m.executions.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// Aggregator returns the metrics registry tracking price aggregation.
func Aggregator() *aggregatorMetrics {
	aggregatorMetricsOnce.Do(func() {
		aggregatorRegistry = &aggregatorMetrics{
			quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mosaica",
				Subsystem: "aggregator",
				Name:      "quotes_total",
				Help:      "Count of venue quotes segmented by venue and outcome.",
			}, []string{"venue", "outcome"}),
			skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "mosaica",
				Subsystem: "aggregator",
				Name:      "skipped_total",
				Help:      "Count of venues skipped during aggregation segmented by reason.",
			}, []string{"venue", "reason"}),
		}
		prometheus.MustRegister(aggregatorRegistry.quotes, aggregatorRegistry.skipped)
	})
	return aggregatorRegistry
}

// RecordQuote increments the quote counter for a venue. Degraded quotes count
// as errors so dashboards surface flaky venues.
func (m *aggregatorMetrics) RecordQuote(venue string, degraded bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if degraded {
		outcome = "degraded"
	}
	m.quotes.WithLabelValues(labelVenue(venue), outcome).Inc()
}

// RecordSkip increments the skip counter for a venue.
func (m *aggregatorMetrics) RecordSkip(venue, reason string) {
	if m == nil {
		return
	}
	if reason = strings.TrimSpace(reason); reason == "" {
		reason = "unspecified"
	}
	m.skipped.WithLabelValues(labelVenue(venue), reason).Inc()
}

func labelVenue(venue string) string {
	trimmed := strings.TrimSpace(venue)
	if trimmed == "" {
		return "unknown"
	}
	return strings.ToLower(trimmed)
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
