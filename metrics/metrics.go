package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultQueued  = "queued"
	ResultDropped = "dropped"
	ResultSuccess = "success"
	ResultError   = "error"
	ResultCached  = "cached"
)

// Metrics holds the service's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ThumbnailJobs   *prometheus.CounterVec
	Translations    *prometheus.CounterVec
}

// New registers the collectors on reg. Passing nil creates a private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ThumbnailJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_thumbnail_jobs_total",
			Help: "Thumbnail jobs by result.",
		}, []string{"result"}),
		Translations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_translations_total",
			Help: "Machine translation calls by engine and result.",
		}, []string{"engine", "result"}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.ThumbnailJobs, m.Translations)
	return m
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveThumbnailJob(result string) {
	if m == nil {
		return
	}
	m.ThumbnailJobs.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTranslation(engine, result string) {
	if m == nil {
		return
	}
	if engine == "" {
		engine = "unknown"
	}
	m.Translations.WithLabelValues(engine, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
