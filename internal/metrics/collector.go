// Package metrics provides internal metrics collection for the llmkit
// transport. This package is internal and should not be imported by
// external projects; embedding services observe it through the default
// prometheus registry.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records per-operation request outcomes.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	defaultCollector *Collector
	defaultOnce      sync.Once
)

// Default returns the process-wide collector registered on the default
// prometheus registry. Lazily initialized so library users who never
// touch the transport pay nothing.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = New("llmkit", prometheus.DefaultRegisterer)
	})
	return defaultCollector
}

// New creates a collector registered on reg.
func New(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "API requests by operation and outcome status.",
			},
			[]string{"op", "status"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Retry attempts by operation.",
			},
			[]string{"op"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "End-to-end request latency including retries.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(c.requestsTotal, c.retriesTotal, c.requestDuration)
	}
	return c
}

// ObserveRequest records one completed call. status is the final HTTP
// status, or 0 when the request never got a response.
func (c *Collector) ObserveRequest(op string, status int, duration time.Duration) {
	label := "none"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	c.requestsTotal.WithLabelValues(op, label).Inc()
	c.requestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveRetry records one retry attempt.
func (c *Collector) ObserveRetry(op string) {
	c.retriesTotal.WithLabelValues(op).Inc()
}
