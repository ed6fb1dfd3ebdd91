package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCounter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("/api/artworks/{id}", "GET", 200, 10*time.Millisecond)
	m.ObserveRequest("/api/artworks/{id}", "GET", 200, 20*time.Millisecond)
	m.ObserveRequest("", "GET", 404, time.Millisecond)

	assert.Equal(t, 2.0, findCounter(t, reg, "portfolio_http_requests_total",
		map[string]string{"route": "/api/artworks/{id}", "method": "GET", "status": "200"}))
	assert.Equal(t, 1.0, findCounter(t, reg, "portfolio_http_requests_total",
		map[string]string{"route": "unmatched", "status": "404"}))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", "GET", 200, time.Millisecond)
	m.ObserveThumbnailJob(ResultSuccess)
	m.ObserveTranslation("openai", ResultSuccess)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveTranslation("", ResultError)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `portfolio_translations_total{engine="unknown",result="error"} 1`)
}
