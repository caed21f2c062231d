package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "damage_predictor"

// Metrics holds the Prometheus counters, histograms, and gauges for the prediction service.
type Metrics struct {
	Predictions       *prometheus.CounterVec // labels: outcome={success,validation_error,inference_error}
	PredictedLabels   *prometheus.CounterVec // labels: label
	ValidationErrors  *prometheus.CounterVec // labels: field
	UnknownLabels     prometheus.Counter
	InferenceDuration prometheus.Histogram
	ModelLoaded       prometheus.Gauge

	// Prediction cache metrics.
	CacheLookups *prometheus.CounterVec // labels: backend={memory,redis}, result={hit,miss,error}

	// Remote model server metrics.
	ModelServerRequests *prometheus.CounterVec // labels: endpoint={invocations,ping}, outcome={success,error}
	ModelServerDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Predictions,
		m.PredictedLabels,
		m.ValidationErrors,
		m.UnknownLabels,
		m.InferenceDuration,
		m.ModelLoaded,
		m.CacheLookups,
		m.ModelServerRequests,
		m.ModelServerDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictedLabels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predicted_labels_total",
			Help:      "Successful predictions by resolved damage label.",
		}, []string{"label"}),
		ValidationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Rejected submissions by offending field.",
		}, []string{"field"}),
		UnknownLabels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_labels_total",
			Help:      "Predictions whose class code is not in the label map.",
		}),
		InferenceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Duration of a single prediction call.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_loaded",
			Help:      "1 once the model and preprocessor artifacts are loaded.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Prediction cache lookups by backend and result.",
		}, []string{"backend", "result"}),
		ModelServerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_server_requests_total",
			Help:      "Model server requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ModelServerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_server_duration_seconds",
			Help:      "Model server invocation duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
