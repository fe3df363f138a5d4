package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marina"

type Metrics struct {
	registry   *prometheus.Registry
	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   *prometheus.GaugeVec
	pairings   *prometheus.CounterVec
	mapDeletes *prometheus.CounterVec
}

func New() *Metrics {
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Buckets: prometheus.DefBuckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	pairings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "pairing_operations_total",
		Help: "Boat assign/unassign attempts by outcome.",
	}, []string{"operation", "outcome"})
	mapDeletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "map_deletes_total",
		Help: "Map deletions by outcome (deactivated or removed).",
	}, []string{"outcome"})
	r.MustRegister(pairings, mapDeletes)

	return &Metrics{
		registry:   r,
		httpReqCnt: httpReqCnt,
		httpDur:    httpDur,
		httpInfl:   httpInfl,
		pairings:   pairings,
		mapDeletes: mapDeletes,
	}
}

// ObservePairing counts an assign or unassign attempt. Safe on a nil
// receiver so services work with metrics disabled.
func (m *Metrics) ObservePairing(operation, outcome string) {
	if m == nil {
		return
	}
	m.pairings.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveMapDelete(outcome string) {
	if m == nil {
		return
	}
	m.mapDeletes.WithLabelValues(outcome).Inc()
}

// Middleware records count, latency and in-flight requests per route
// template, so /boats/1 and /boats/2 share a series.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.httpInfl.WithLabelValues(route).Inc()
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := strconv.Itoa(c.Response().Status)
			m.httpReqCnt.WithLabelValues(c.Request().Method, route, status).Inc()
			m.httpDur.WithLabelValues(c.Request().Method, route, status).Observe(time.Since(start).Seconds())
			m.httpInfl.WithLabelValues(route).Dec()
			return nil
		}
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
