package footprints

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
// All metrics carry a single "model" label, taken from the ("model", name)
// tag pair if the caller supplied one.
type PrometheusMetrics struct {
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
	registry   *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance
// If registry is nil, uses the default Prometheus registry
func NewPrometheusMetrics(registry *prometheus.Registry) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer.(*prometheus.Registry)
	}

	pm := &PrometheusMetrics{
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registry:   registry,
	}

	pm.registerDefaultMetrics()
	return pm
}

func (p *PrometheusMetrics) registerDefaultMetrics() {
	counter := func(metric, subsystem, name, help string) {
		p.counters[metric] = promauto.With(p.registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "footprints",
				Subsystem: subsystem,
				Name:      name,
				Help:      help,
			},
			[]string{"model"},
		)
	}

	counter(MetricCreateSuccess, "create", "success_total", "Successful create operations")
	counter(MetricCreateError, "create", "errors_total", "Failed create operations")
	counter(MetricFindSuccess, "find", "success_total", "Successful find operations")
	counter(MetricFindError, "find", "errors_total", "Failed find operations")
	counter(MetricUpdateSuccess, "update", "success_total", "Successful update operations")
	counter(MetricUpdateError, "update", "errors_total", "Failed update operations")
	counter(MetricDestroySuccess, "destroy", "success_total", "Successful destroy operations")
	counter(MetricDestroyError, "destroy", "errors_total", "Failed destroy operations")
	counter(MetricAssociationOps, "association", "operations_total", "Association operations resolved")
	counter(MetricAssociationErrors, "association", "errors_total", "Association operations that failed classification")
	counter(MetricStoreErrors, "store", "errors_total", "Errors propagated from the underlying store")
	counter(MetricIndexHits, "index", "hits_total", "Finds answered from a secondary index")
	counter(MetricIndexMisses, "index", "misses_total", "Finds that fell back to a scan")

	histogram := func(metric, subsystem, name, help string, buckets []float64) {
		p.histograms[metric] = promauto.With(p.registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "footprints",
				Subsystem: subsystem,
				Name:      name,
				Help:      help,
				Buckets:   buckets,
			},
			[]string{"model"},
		)
	}

	durationBuckets := []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	histogram(MetricCreateDuration, "create", "duration_seconds", "Create duration in seconds", durationBuckets)
	histogram(MetricFindDuration, "find", "duration_seconds", "Find duration in seconds", durationBuckets)
	histogram(MetricUpdateDuration, "update", "duration_seconds", "Update duration in seconds", durationBuckets)
	histogram(MetricDestroyDuration, "destroy", "duration_seconds", "Destroy duration in seconds", durationBuckets)
	histogram(MetricStoreLatency, "store", "latency_seconds", "Underlying store call latency in seconds", durationBuckets)
	histogram(MetricFindResults, "find", "results", "Result set sizes returned by find",
		[]float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func (p *PrometheusMetrics) Increment(name string, tags ...string) {
	if c, ok := p.counters[name]; ok {
		c.WithLabelValues(tagValue(tags, "model")).Inc()
	}
}

func (p *PrometheusMetrics) Gauge(name string, value float64, tags ...string) {
	if g, ok := p.gauges[name]; ok {
		g.WithLabelValues(tagValue(tags, "model")).Set(value)
	}
}

func (p *PrometheusMetrics) Histogram(name string, value float64, tags ...string) {
	if h, ok := p.histograms[name]; ok {
		h.WithLabelValues(tagValue(tags, "model")).Observe(value)
	}
}

func (p *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...string) {
	if h, ok := p.histograms[name]; ok {
		h.WithLabelValues(tagValue(tags, "model")).Observe(duration.Seconds())
	}
}

// tagValue extracts a value from alternating key-value tag pairs
func tagValue(tags []string, key string) string {
	for i := 0; i+1 < len(tags); i += 2 {
		if tags[i] == key {
			return tags[i+1]
		}
	}
	return ""
}
