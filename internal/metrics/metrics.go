// Package metrics exposes the process's prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmix_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodmix_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendations
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmix_recommendations_total",
			Help: "Recommendation requests by outcome (ok, fallback, or an error kind)",
		},
		[]string{"outcome"},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodmix_recommendation_duration_seconds",
			Help:    "Time spent normalizing and ranking one request",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	RecommendationResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodmix_recommendation_result_size",
			Help:    "Number of tracks returned per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	// Catalog
	CatalogTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodmix_catalog_tracks",
			Help: "Number of tracks in the active catalog",
		},
	)

	CatalogReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmix_catalog_reloads_total",
			Help: "Catalog rebuild attempts by result",
		},
		[]string{"result"},
	)

	CatalogLastReload = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodmix_catalog_last_reload_timestamp_seconds",
			Help: "Unix time of the last successful catalog swap",
		},
	)

	// Classifier
	ClassifierRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmix_classifier_requests_total",
			Help: "Text classification calls by result",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moodmix_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmix_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// History
	HistoryRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodmix_history_recorded_total",
			Help: "Recommendation history entries persisted",
		},
	)

	HistoryDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodmix_history_dropped_total",
			Help: "Recommendation history entries that were not persisted",
		},
		[]string{"reason"}, // "queue_full", "write_failed"
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommendation records the outcome of one recommendation.
func RecordRecommendation(outcome string, size int, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	RecommendationDuration.Observe(duration.Seconds())
	if size >= 0 {
		RecommendationResultSize.Observe(float64(size))
	}
}

// RecordCatalogReload records a catalog rebuild. tracks is ignored on failure.
func RecordCatalogReload(tracks int, err error) {
	if err != nil {
		CatalogReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	CatalogReloadsTotal.WithLabelValues("ok").Inc()
	CatalogTracks.Set(float64(tracks))
	CatalogLastReload.Set(float64(time.Now().Unix()))
}

// RecordClassification records a classifier call.
func RecordClassification(err error) {
	if err != nil {
		ClassifierRequestsTotal.WithLabelValues("error").Inc()
		return
	}
	ClassifierRequestsTotal.WithLabelValues("ok").Inc()
}
