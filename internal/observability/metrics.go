package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ComputeCollector bundles Prometheus metrics for the compute and
// query surfaces and provides the /metrics handler.
type ComputeCollector struct {
	gatherer prometheus.Gatherer

	ComputeRequests  *prometheus.CounterVec
	ComputeDurations prometheus.Histogram
	GridPoints       prometheus.Histogram
	SourcesRetained  prometheus.Histogram
	QueryRequests    *prometheus.CounterVec
}

// NewComputeCollector registers the compute metrics against the
// provided registerer, defaulting to the global Prometheus registry
// when nil.
func NewComputeCollector(reg prometheus.Registerer) (*ComputeCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emfield_compute_requests_total",
		Help: "Total compute requests, labeled by outcome (ok, invalid, limit_region, limit_grid, error).",
	}, []string{"outcome"})
	requests, err := registerCounterVec(reg, requests, "emfield_compute_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emfield_compute_duration_seconds",
		Help:    "Wall-clock duration of one compute invocation.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}), "emfield_compute_duration_seconds")
	if err != nil {
		return nil, err
	}

	gridPoints, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emfield_grid_points",
		Help:    "Realized grid point count per compute request.",
		Buckets: prometheus.ExponentialBuckets(100, 4, 7),
	}), "emfield_grid_points")
	if err != nil {
		return nil, err
	}

	sources, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "emfield_sources_retained",
		Help:    "Sources surviving the influence pre-filter per request.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	}), "emfield_sources_retained")
	if err != nil {
		return nil, err
	}

	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emfield_query_requests_total",
		Help: "Total point queries, labeled by result (hit, miss).",
	}, []string{"result"})
	queries, err = registerCounterVec(reg, queries, "emfield_query_requests_total")
	if err != nil {
		return nil, err
	}

	return &ComputeCollector{
		gatherer:         gatherer,
		ComputeRequests:  requests,
		ComputeDurations: durations,
		GridPoints:       gridPoints,
		SourcesRetained:  sources,
		QueryRequests:    queries,
	}, nil
}

// ObserveCompute records one finished compute invocation.
func (c *ComputeCollector) ObserveCompute(outcome string, duration time.Duration, gridPoints, sourcesRetained int) {
	if c == nil {
		return
	}
	if c.ComputeRequests != nil {
		c.ComputeRequests.WithLabelValues(outcome).Inc()
	}
	if outcome != "ok" {
		return
	}
	if c.ComputeDurations != nil {
		c.ComputeDurations.Observe(duration.Seconds())
	}
	if c.GridPoints != nil {
		c.GridPoints.Observe(float64(gridPoints))
	}
	if c.SourcesRetained != nil {
		c.SourcesRetained.Observe(float64(sourcesRetained))
	}
}

// ObserveQuery records one point query.
func (c *ComputeCollector) ObserveQuery(hit bool) {
	if c == nil || c.QueryRequests == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.QueryRequests.WithLabelValues(result).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *ComputeCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
