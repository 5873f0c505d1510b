// Package metrics exposes Prometheus collectors for the document service,
// the HTTP layer and the database pool.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"factura/internal/core/apperror"
	"factura/internal/domain/documents/business"
	"factura/internal/infrastructure/storage/postgres"
)

const namespace = "factura"

// Generation results.
const (
	ResultOK                = "ok"
	ResultInvalidTransition = "invalid_transition"
	ResultNotFound          = "not_found"
	ResultError             = "error"
)

// Collector implements documents.Metrics.
type Collector struct {
	recalculations *prometheus.CounterVec
	recalcDuration *prometheus.HistogramVec
	diagnostics    *prometheus.CounterVec
	generations    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors on registerer, or on the default
// registerer when nil.
func New(registerer prometheus.Registerer) *Collector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	c := &Collector{
		recalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recalculations_total",
			Help:      "Document total recalculations by kind and line source.",
		}, []string{"kind", "source"}),
		recalcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recalculation_duration_seconds",
			Help:      "Time spent recalculating document totals.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"kind", "source"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recalculation_diagnostics_total",
			Help:      "Diagnostics emitted while recalculating, by kind.",
		}, []string{"kind"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Document conversions by source kind, target kind and result.",
		}, []string{"from", "to", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registerer.MustRegister(
		c.recalculations,
		c.recalcDuration,
		c.diagnostics,
		c.generations,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

func (c *Collector) ObserveRecalculation(kind business.Kind, source string, took time.Duration, diagnostics int) {
	c.recalculations.WithLabelValues(kind.String(), source).Inc()
	c.recalcDuration.WithLabelValues(kind.String(), source).Observe(took.Seconds())
	if diagnostics > 0 {
		c.diagnostics.WithLabelValues(kind.String()).Add(float64(diagnostics))
	}
}

func (c *Collector) ObserveGeneration(from, to business.Kind, err error) {
	c.generations.WithLabelValues(from.String(), to.String(), ClassifyResult(err)).Inc()
}

// ClassifyResult maps an operation error to a low-cardinality label.
func ClassifyResult(err error) string {
	if err == nil {
		return ResultOK
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return ResultError
	}
	switch appErr.Code {
	case apperror.CodeInvalidTransition:
		return ResultInvalidTransition
	case apperror.CodeNotFound:
		return ResultNotFound
	}
	return ResultError
}

// GinMiddleware records request count and latency per matched route.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method
		c.httpRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RegisterPool exports pool statistics as gauges read at scrape time.
func RegisterPool(registerer prometheus.Registerer, stats func() postgres.PoolStats) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gauge := func(name, help string, fn func(postgres.PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return fn(stats()) })
	}

	registerer.MustRegister(
		gauge("total_conns", "Open connections.", func(s postgres.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("acquired_conns", "Connections in use.", func(s postgres.PoolStats) float64 { return float64(s.AcquiredConns) }),
		gauge("idle_conns", "Idle connections.", func(s postgres.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("max_conns", "Maximum pool size.", func(s postgres.PoolStats) float64 { return float64(s.MaxConns) }),
		gauge("acquire_seconds", "Cumulative time spent acquiring connections.", func(s postgres.PoolStats) float64 { return s.AcquireDuration.Seconds() }),
	)
}
