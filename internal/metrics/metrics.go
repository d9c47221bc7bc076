// Package metrics exposes FireCAD analysis and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/firecad/internal/firesafety"
)

// Registry holds every FireCAD collector on a private Prometheus registry.
type Registry struct {
	AnalysesTotal        *prometheus.CounterVec
	AnalysisDuration     prometheus.Histogram
	DevicesExtracted     *prometheus.CounterVec
	LayersScanned        prometheus.Histogram
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	PublishFailuresTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all metrics plus Go and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Registry{
		registry: reg,

		AnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "firecad_analyses_total",
				Help: "Analyses finished, by outcome status",
			},
			[]string{"status"}, // ok, error, unavailable
		),
		AnalysisDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "firecad_analysis_duration_seconds",
				Help:    "Time to open and analyse one drawing",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 120},
			},
		),
		DevicesExtracted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "firecad_devices_extracted_total",
				Help: "Devices extracted from successful analyses, by device type",
			},
			[]string{"device_type"},
		),
		LayersScanned: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "firecad_layers_scanned",
				Help:    "Fire-safety layers scanned per successful analysis",
				Buckets: prometheus.LinearBuckets(0, 2, 10),
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "firecad_http_requests_total",
				Help: "HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "firecad_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		PublishFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "firecad_publish_failures_total",
				Help: "Failed deliveries to downstream sinks",
			},
			[]string{"sink"}, // mqtt, influxdb
		),
	}
}

// ObserveAnalysis implements firesafety.Observer.
func (r *Registry) ObserveAnalysis(status firesafety.Status, elapsed time.Duration, result *firesafety.AnalysisResult) {
	r.AnalysesTotal.WithLabelValues(string(status)).Inc()
	r.AnalysisDuration.Observe(elapsed.Seconds())

	if result == nil {
		return
	}
	r.LayersScanned.Observe(float64(len(result.ScannedLayers)))
	for dt, n := range result.DeviceSummary.ByType {
		r.DevicesExtracted.WithLabelValues(string(dt)).Add(float64(n))
	}
}

// RecordHTTPRequest records one served request. route is the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func (r *Registry) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordPublishFailure counts a failed delivery to sink.
func (r *Registry) RecordPublishFailure(sink string) {
	r.PublishFailuresTotal.WithLabelValues(sink).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer returns the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
