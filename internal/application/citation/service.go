// Package citation is the application layer over the analysis pipeline:
// indexing, per-citation extraction and verification under a bounded worker
// pool, then clustering once every citation has a result.
package citation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domain "github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/internal/infrastructure/monitoring/logging"
	"github.com/lexcite/caseguard/internal/intelligence/casename"
	"github.com/lexcite/caseguard/internal/intelligence/position"
	"github.com/lexcite/caseguard/internal/intelligence/reporters"
	"github.com/lexcite/caseguard/pkg/errors"
)

const (
	// DefaultWorkers bounds concurrent verifications per document.
	DefaultWorkers = 8

	// DefaultMaxDocumentBytes rejects pathological inputs before indexing.
	DefaultMaxDocumentBytes = 4 << 20
)

// AnalyzeRequest asks for the full pipeline over one document's text.
type AnalyzeRequest struct {
	// Text is the document's extracted plain text.
	Text string `json:"text" validate:"required"`

	// KnownCitations, when non-empty, bypasses indexing: only these
	// substrings are located and analyzed.
	KnownCitations []string `json:"known_citations,omitempty"`

	// SkipVerification runs the offline stages only.
	SkipVerification bool `json:"skip_verification,omitempty"`

	// MaxLookback overrides the context isolation window, in bytes.
	MaxLookback int `json:"max_lookback,omitempty"`

	// Timeout is the whole-document budget.  On expiry, in-flight
	// verifications finish as unverified/timeout and clustering proceeds
	// with whatever completed.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// AnalyzeResult is the pipeline's output for one document.
type AnalyzeResult struct {
	RequestID      string            `json:"request_id"`
	Citations      []domain.Citation `json:"citations"`
	Clusters       []domain.Cluster  `json:"clusters"`
	TotalCitations int               `json:"total_citations"`
	TotalVerified  int               `json:"total_verified"`
	TotalClustered int               `json:"total_clustered"`
	DurationMs     int64             `json:"duration_ms"`
	AnalyzedAt     time.Time         `json:"analyzed_at"`
}

// VerifyRequest checks a single citation string, with optional extracted
// evidence, against the source cascade.
type VerifyRequest struct {
	CitationText string `json:"citation_text" validate:"required"`
	CaseName     string `json:"case_name,omitempty"`
	Date         string `json:"date,omitempty"`
}

// Service is the application-layer contract for citation analysis.
type Service interface {
	// Analyze runs the full pipeline over one document.
	Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResult, error)

	// VerifyOne verifies a single citation string.
	VerifyOne(ctx context.Context, req *VerifyRequest) (*domain.VerificationResult, error)
}

// Verifier is the slice of the verification engine the service needs.
type Verifier interface {
	Verify(ctx context.Context, q domain.Query) domain.VerificationResult
}

// Clusterer is the slice of the clustering engine the service needs.
type Clusterer interface {
	Cluster(citations []domain.Citation) []domain.Cluster
}

// Metrics observes completed document analyses.
type Metrics interface {
	ObserveAnalysis(duration time.Duration, citations, clusters int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAnalysis(time.Duration, int, int) {}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

type serviceImpl struct {
	lib       *reporters.Library
	extractor *casename.Extractor
	verifier  Verifier
	clusterer Clusterer
	logger    logging.Logger
	metrics   Metrics
	workers   int
	maxBytes  int
}

type ServiceOption func(*serviceImpl)

// WithWorkers bounds the per-document verification pool.
func WithWorkers(n int) ServiceOption {
	return func(s *serviceImpl) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxDocumentBytes overrides the input size cap.
func WithMaxDocumentBytes(n int) ServiceOption {
	return func(s *serviceImpl) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func WithMetrics(m Metrics) ServiceOption {
	return func(s *serviceImpl) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService constructs the pipeline service.  All dependencies are
// required except via options.
func NewService(
	lib *reporters.Library,
	extractor *casename.Extractor,
	verifier Verifier,
	clusterer Clusterer,
	logger logging.Logger,
	opts ...ServiceOption,
) Service {
	if lib == nil {
		panic("citation: reporter library must not be nil")
	}
	if extractor == nil {
		panic("citation: extractor must not be nil")
	}
	if verifier == nil {
		panic("citation: verifier must not be nil")
	}
	if clusterer == nil {
		panic("citation: clusterer must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		lib:       lib,
		extractor: extractor,
		verifier:  verifier,
		clusterer: clusterer,
		logger:    logger.Named("pipeline"),
		metrics:   nopMetrics{},
		workers:   DefaultWorkers,
		maxBytes:  DefaultMaxDocumentBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) validateAnalyze(req *AnalyzeRequest) error {
	if req == nil {
		return errors.InvalidParam("request must not be nil")
	}
	if req.Text == "" {
		return errors.InvalidParam("text is required")
	}
	if len(req.Text) > s.maxBytes {
		return errors.Newf(errors.CodeDocumentTooLarge,
			"document is %d bytes, limit %d", len(req.Text), s.maxBytes)
	}
	return nil
}

func (s *serviceImpl) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResult, error) {
	if err := s.validateAnalyze(req); err != nil {
		return nil, err
	}
	start := time.Now()
	requestID := uuid.NewString()

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var idx *position.Index
	if len(req.KnownCitations) > 0 {
		idx = position.BuildFromSubstrings(s.lib, req.Text, req.KnownCitations)
	} else {
		idx = position.Build(s.lib, req.Text)
	}
	matches := idx.Matches()

	s.logger.Info("document indexed",
		logging.String("request_id", requestID),
		logging.Int("citations", len(matches)),
		logging.Bool("pre_supplied", len(req.KnownCitations) > 0),
	)

	maxLookback := req.MaxLookback
	if maxLookback <= 0 {
		maxLookback = position.DefaultMaxLookback
	}

	// Extraction and verification are independent across citations; each
	// worker writes only its own slot, keyed by index rather than by
	// completion order.
	citations := make([]domain.Citation, len(matches))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i := range matches {
		i := i
		m := matches[i]
		g.Go(func() error {
			ictx := idx.Isolate(m.Span, maxLookback)
			nameRes := s.extractor.Extract(ictx, m.Span.RawText)
			year := idx.YearAfter(m.Span)

			c := domain.Citation{
				Span:              m.Span,
				ExtractedCaseName: nameRes.CaseName,
				ExtractedDate:     year,
				NameConfidence:    nameRes.Confidence,
				NameMethod:        nameRes.Method,
			}
			if !req.SkipVerification {
				c.Verification = s.verifier.Verify(ctx, domain.Query{
					CitationText:      domain.NormalizeCitation(m.Span.RawText),
					Parsed:            m.Parsed,
					ExtractedCaseName: nameRes.CaseName,
					ExtractedDate:     year,
				})
			}
			citations[i] = c
			return nil
		})
	}
	// Join barrier: clustering needs the full per-citation result set.
	_ = g.Wait()

	clusters := s.clusterer.Cluster(citations)

	result := &AnalyzeResult{
		RequestID:      requestID,
		Citations:      citations,
		Clusters:       clusters,
		TotalCitations: len(citations),
		DurationMs:     time.Since(start).Milliseconds(),
		AnalyzedAt:     time.Now(),
	}
	for i := range citations {
		if citations[i].Verification.Verified {
			result.TotalVerified++
		}
		if citations[i].ClusterID != "" {
			result.TotalClustered++
		}
	}

	s.metrics.ObserveAnalysis(time.Since(start), len(citations), len(clusters))
	s.logger.Info("analysis complete",
		logging.String("request_id", requestID),
		logging.Int("citations", result.TotalCitations),
		logging.Int("verified", result.TotalVerified),
		logging.Int("clusters", len(clusters)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (s *serviceImpl) VerifyOne(ctx context.Context, req *VerifyRequest) (*domain.VerificationResult, error) {
	if req == nil {
		return nil, errors.InvalidParam("request must not be nil")
	}
	normalized := domain.NormalizeCitation(req.CitationText)
	if normalized == "" {
		return nil, errors.InvalidParam("citation_text is required")
	}

	q := domain.Query{
		CitationText:      normalized,
		ExtractedCaseName: req.CaseName,
		ExtractedDate:     req.Date,
	}
	parsed, err := s.lib.Parse(normalized)
	if err != nil {
		// Unparseable input is a structured outcome, not a failure: the
		// text-based sources may still resolve it.
		s.logger.Debug("citation not parseable", logging.String("citation", normalized), logging.Err(err))
	} else {
		q.Parsed = parsed
	}

	res := s.verifier.Verify(ctx, q)
	return &res, nil
}
