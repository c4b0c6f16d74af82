// Package metrics provides Prometheus metrics collection for the wine classifier.
// It defines and manages the prediction, feature pipeline, and HTTP metrics that
// are exposed via the Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the classifier service.
type Metrics struct {
	// Prediction metrics
	Predictions        *prometheus.CounterVec // Classifications by verdict (GOOD, BAD)
	PredictionFailures prometheus.Counter     // Predictor errors
	PredictionLatency  prometheus.Histogram   // End-to-end Classify latency
	ModelLoaded        prometheus.Gauge       // 1 when a model is loaded, else 0
	ModelAge           prometheus.Gauge       // Age of the model artifact in seconds
	CacheHits          prometheus.Counter     // Prediction cache hits
	CacheMisses        prometheus.Counter     // Prediction cache misses

	// Input and feature metrics
	InvalidInputs     prometheus.Counter   // Observations rejected by bounds validation
	FeatureTransforms prometheus.Counter   // Rows pushed through the feature pipeline
	FeatureLatency    prometheus.Histogram // Feature pipeline latency

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec   // Requests by route and status code
	HTTPDuration *prometheus.HistogramVec // Request latency by route
	WSSessions   prometheus.Gauge         // Open websocket sessions
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wine_predictions_total",
			Help: "Total number of classifications by verdict",
		}, []string{"verdict"}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "wine_prediction_failures_total",
			Help: "Total number of predictor failures",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wine_prediction_latency_seconds",
			Help:    "Classification latency in seconds (end-to-end)",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wine_model_loaded",
			Help: "Whether a model artifact is loaded (1) or not (0)",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wine_model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "wine_cache_hits_total",
			Help: "Total number of prediction cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "wine_cache_misses_total",
			Help: "Total number of prediction cache misses",
		}),
		InvalidInputs: factory.NewCounter(prometheus.CounterOpts{
			Name: "wine_invalid_inputs_total",
			Help: "Total number of observations rejected by bounds validation",
		}),
		FeatureTransforms: factory.NewCounter(prometheus.CounterOpts{
			Name: "wine_feature_transforms_total",
			Help: "Total number of rows transformed by the feature pipeline",
		}),
		FeatureLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wine_feature_latency_seconds",
			Help:    "Feature pipeline latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		WSSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wine_ws_sessions",
			Help: "Number of open websocket sessions",
		}),
	}
}
