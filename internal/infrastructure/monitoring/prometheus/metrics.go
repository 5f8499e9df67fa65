package prometheus

import "time"

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// Verification
	SourceAttemptsTotal CounterVec
	CacheHitsTotal      CounterVec
	CacheMissesTotal    CounterVec

	// Pipeline
	AnalysisDuration     HistogramVec
	CitationsPerDocument HistogramVec
	ClustersPerDocument  HistogramVec
	AnalysesTotal        CounterVec
}

// Default buckets.
var (
	DefaultAnalysisDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultCountBuckets            = []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500}
)

// NewAppMetrics registers all metrics and returns an AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// Verification
	m.SourceAttemptsTotal = collector.RegisterCounter("source_attempts_total", "Verification source attempts", "source", "outcome")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Verification cache hits", "tier")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Verification cache misses")

	// Pipeline
	m.AnalysisDuration = collector.RegisterHistogram("analysis_duration_seconds", "Document analysis duration", DefaultAnalysisDurationBuckets)
	m.CitationsPerDocument = collector.RegisterHistogram("citations_per_document", "Citations found per document", DefaultCountBuckets)
	m.ClustersPerDocument = collector.RegisterHistogram("clusters_per_document", "Clusters found per document", DefaultCountBuckets)
	m.AnalysesTotal = collector.RegisterCounter("analyses_total", "Documents analysed")

	return m
}

// VerifyMetrics adapts AppMetrics to the verification engine's hook.
type VerifyMetrics struct {
	m *AppMetrics
}

func NewVerifyMetrics(m *AppMetrics) *VerifyMetrics { return &VerifyMetrics{m: m} }

func (v *VerifyMetrics) SourceAttempt(source, outcome string) {
	v.m.SourceAttemptsTotal.WithLabelValues(source, outcome).Inc()
}

func (v *VerifyMetrics) CacheHit(tier string) {
	v.m.CacheHitsTotal.WithLabelValues(tier).Inc()
}

func (v *VerifyMetrics) CacheMiss() {
	v.m.CacheMissesTotal.WithLabelValues().Inc()
}

// PipelineMetrics adapts AppMetrics to the analysis service's hook.
type PipelineMetrics struct {
	m *AppMetrics
}

func NewPipelineMetrics(m *AppMetrics) *PipelineMetrics { return &PipelineMetrics{m: m} }

func (p *PipelineMetrics) ObserveAnalysis(duration time.Duration, citations, clusters int) {
	p.m.AnalysesTotal.WithLabelValues().Inc()
	p.m.AnalysisDuration.WithLabelValues().Observe(duration.Seconds())
	p.m.CitationsPerDocument.WithLabelValues().Observe(float64(citations))
	p.m.ClustersPerDocument.WithLabelValues().Observe(float64(clusters))
}
