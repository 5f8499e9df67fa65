package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcite/caseguard/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	cfg := CollectorConfig{
		Namespace:            "test",
		Subsystem:            "unit",
		EnableGoMetrics:      false,
		EnableProcessMetrics: false,
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	handler := collector.Handler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_ValidConfig(t *testing.T) {
	c := newTestCollector(t)
	assert.NotNil(t, c)
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	cfg := CollectorConfig{
		Subsystem: "unit",
	}
	_, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestRegisterCounter_IncrementVisibleInScrape(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("requests_total", "Requests", "method")
	vec.WithLabelValues("GET").Inc()
	vec.WithLabelValues("GET").Add(2)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_requests_total")
	assert.Contains(t, output, `method="GET"`)
	assert.Contains(t, output, "3")
}

func TestRegisterCounter_DuplicateReturnsSameCollector(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterCounter("dup_total", "Dup", "l")
	second := c.RegisterCounter("dup_total", "Dup", "l")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_dup_total")
	assert.Contains(t, output, "2")
}

func TestRegisterGauge_SetAndSub(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterGauge("depth", "Depth", "queue")
	g := vec.WithLabelValues("main")
	g.Set(10)
	g.Sub(4)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_depth")
	assert.Contains(t, output, "6")
}

func TestRegisterHistogram_ObservationsCounted(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterHistogram("latency_seconds", "Latency", []float64{0.1, 1, 10}, "op")
	vec.WithLabelValues("analyze").Observe(0.5)
	vec.WithLabelValues("analyze").Observe(2)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_latency_seconds_count")
	assert.Contains(t, output, "test_unit_latency_seconds_bucket")
}

func TestRegisterHistogram_NilBucketsUseDefaults(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterHistogram("d_seconds", "D", nil)
	vec.WithLabelValues().Observe(0.01)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `le="0.005"`)
}

func TestRegisterConflictingType_ReturnsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("same_name", "Counter", "l")
	gauge := c.RegisterGauge("same_name", "Gauge", "l")

	// The second registration must not panic and must not corrupt the scrape.
	assert.NotPanics(t, func() { gauge.WithLabelValues("x").Set(5) })
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterHistogram("timed_seconds", "Timed", []float64{0.001, 1})
	timer := NewTimer(vec.WithLabelValues())
	timer.ObserveDuration()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_timed_seconds_count 1")
}

func TestTimer_NilHistogramIsSafe(t *testing.T) {
	timer := NewTimer(nil)
	assert.NotPanics(t, timer.ObserveDuration)
}
