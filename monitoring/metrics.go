package monitoring

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joeharson/mushroom-classification/ml"
)

// MetricsCollector owns the prediction metrics and the registry they are exposed from
type MetricsCollector struct {
	registry *prometheus.Registry

	predictions      *prometheus.CounterVec
	predictionErrors *prometheus.CounterVec
	unseenCategories *prometheus.CounterVec
	latency          prometheus.Histogram
	modelLoaded      prometheus.Gauge
}

// NewMetricsCollector creates a collector registered on its own registry
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mushroom",
			Name:      "predictions_total",
			Help:      "Predictions served, by predicted label.",
		}, []string{"label"}),
		predictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mushroom",
			Name:      "prediction_errors_total",
			Help:      "Failed prediction requests, by error kind.",
		}, []string{"kind"}),
		unseenCategories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mushroom",
			Name:      "unseen_categories_total",
			Help:      "Selections missing from the category mapping, by feature.",
		}, []string{"feature"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mushroom",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent encoding and classifying one request.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		modelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mushroom",
			Name:      "model_loaded",
			Help:      "1 when the classifier artifact is loaded.",
		}),
	}

	mc.registry.MustRegister(
		mc.predictions,
		mc.predictionErrors,
		mc.unseenCategories,
		mc.latency,
		mc.modelLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return mc
}

// SetModelLoaded records the adapter state
func (mc *MetricsCollector) SetModelLoaded(loaded bool) {
	if loaded {
		mc.modelLoaded.Set(1)
		return
	}
	mc.modelLoaded.Set(0)
}

// RecordResult records a successful prediction
func (mc *MetricsCollector) RecordResult(result *ml.Result) {
	mc.predictions.WithLabelValues(result.Label.String()).Inc()
	mc.latency.Observe(result.Duration.Seconds())
	for _, w := range result.Warnings {
		mc.unseenCategories.WithLabelValues(w.Feature).Inc()
	}
}

// RecordError records a failed prediction request
func (mc *MetricsCollector) RecordError(err error, elapsed time.Duration) {
	mc.predictionErrors.WithLabelValues(ErrorKind(err)).Inc()
	mc.latency.Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// ErrorKind classifies a prediction error for metric labels
func ErrorKind(err error) string {
	var inputErr *ml.InputError
	var predErr *ml.PredictionError
	switch {
	case errors.Is(err, ml.ErrModelNotLoaded):
		return "not_loaded"
	case errors.As(err, &inputErr):
		return "input"
	case errors.As(err, &predErr):
		return "prediction"
	default:
		return "internal"
	}
}
