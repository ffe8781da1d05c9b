// Package monitoring exposes Prometheus metrics and the dashboard websocket hub.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insurequote_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	ResponseCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurequote_status_code_total",
			Help: "HTTP status codes by route",
		},
		[]string{"path", "status_code"},
	)

	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurequote_predictions_total",
			Help: "Premium estimates by schema and outcome",
		},
		[]string{"schema", "status"},
	)

	PredictedPremium = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insurequote_predicted_premium_dollars",
			Help:    "Distribution of estimated annual premiums",
			Buckets: []float64{0, 1000, 2500, 5000, 7500, 10000, 15000, 20000, 30000, 40000, 50000, 65000},
		},
	)

	PredictionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurequote_prediction_cache_total",
			Help: "Prediction cache lookups by result",
		},
		[]string{"result"},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "insurequote_dataset_rows",
			Help: "Rows currently loaded from the dataset CSV",
		},
	)

	DatasetReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insurequote_dataset_reloads_total",
			Help: "Dataset loads by outcome",
		},
		[]string{"status"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "insurequote_websocket_clients",
			Help: "Connected dashboard websocket clients",
		},
	)
)

// ObserveCache matches the callback shape of ml.NewCachedPredictor.
func ObserveCache(hit bool) {
	if hit {
		PredictionCache.WithLabelValues("hit").Inc()
		return
	}
	PredictionCache.WithLabelValues("miss").Inc()
}
