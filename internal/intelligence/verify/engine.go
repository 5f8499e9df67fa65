package verify

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lexcite/caseguard/internal/domain/citation"
	"github.com/lexcite/caseguard/internal/infrastructure/cache"
	"github.com/lexcite/caseguard/internal/infrastructure/monitoring/logging"
	"github.com/lexcite/caseguard/internal/intelligence/textsim"
	"github.com/lexcite/caseguard/pkg/errors"
)

// Config tunes the engine's retry, cache, and confidence behavior.
type Config struct {
	Retries            int           `mapstructure:"retries"`
	BackoffInitial     time.Duration `mapstructure:"backoff_initial"`
	BackoffMax         time.Duration `mapstructure:"backoff_max"`
	CacheSize          int           `mapstructure:"cache_size"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	LandmarkCacheSize  int           `mapstructure:"landmark_cache_size"`
	LandmarkCacheTTL   time.Duration `mapstructure:"landmark_cache_ttl"`
	NameMatchThreshold float64       `mapstructure:"name_match_threshold"`
}

func DefaultConfig() Config {
	return Config{
		Retries:            2,
		BackoffInitial:     500 * time.Millisecond,
		BackoffMax:         5 * time.Second,
		CacheSize:          4096,
		CacheTTL:           time.Hour,
		LandmarkCacheSize:  1024,
		LandmarkCacheTTL:   24 * time.Hour,
		NameMatchThreshold: 0.6,
	}
}

// Metrics is the engine's observation hook.  The prometheus adapter in
// infrastructure/monitoring implements it; tests and library callers get the
// nop version.
type Metrics interface {
	SourceAttempt(source, outcome string)
	CacheHit(tier string)
	CacheMiss()
}

type nopMetrics struct{}

func (nopMetrics) SourceAttempt(string, string) {}
func (nopMetrics) CacheHit(string)              {}
func (nopMetrics) CacheMiss()                   {}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

// Engine verifies citations against an ordered source cascade.  State:
// two in-process caches (general and landmark) plus an optional shared
// remote tier.  Safe for concurrent use.
type Engine struct {
	cfg      Config
	sources  []citation.Source
	general  *cache.Memory[citation.VerificationResult]
	landmark *cache.Memory[citation.VerificationResult]
	remote   cache.Remote
	logger   logging.Logger
	metrics  Metrics
}

type EngineOption func(*Engine)

// WithRemoteCache adds a shared second cache tier, checked after the
// in-process caches and written through on definitive results.
func WithRemoteCache(r cache.Remote) EngineOption {
	return func(e *Engine) { e.remote = r }
}

func WithMetrics(m Metrics) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine constructs an engine over sources, which are tried strictly in
// the given order.
func NewEngine(cfg Config, sources []citation.Source, log logging.Logger, opts ...EngineOption) *Engine {
	if log == nil {
		log = logging.NewNopLogger()
	}
	def := DefaultConfig()
	if cfg.Retries < 0 {
		cfg.Retries = def.Retries
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = def.BackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = def.BackoffMax
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.LandmarkCacheSize <= 0 {
		cfg.LandmarkCacheSize = def.LandmarkCacheSize
	}
	if cfg.LandmarkCacheTTL <= 0 {
		cfg.LandmarkCacheTTL = def.LandmarkCacheTTL
	}
	if cfg.NameMatchThreshold <= 0 {
		cfg.NameMatchThreshold = def.NameMatchThreshold
	}
	e := &Engine{
		cfg:      cfg,
		sources:  sources,
		general:  cache.NewMemory[citation.VerificationResult](cfg.CacheSize, cfg.CacheTTL),
		landmark: cache.NewMemory[citation.VerificationResult](cfg.LandmarkCacheSize, cfg.LandmarkCacheTTL),
		logger:   log.Named("verify"),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

const remoteKeyPrefix = "verify:"

// Verify resolves one citation.  It always returns a usable result; a
// cancelled or expired ctx yields verified:false with source "timeout" and
// no cache write.
func (e *Engine) Verify(ctx context.Context, q citation.Query) citation.VerificationResult {
	key := citation.NormalizeCitation(q.CitationText)
	if key == "" {
		return citation.Unverified("empty citation text")
	}

	if res, ok := e.landmark.Get(key); ok {
		e.metrics.CacheHit("landmark")
		return res
	}
	if res, ok := e.general.Get(key); ok {
		e.metrics.CacheHit("general")
		return res
	}
	if e.remote != nil {
		var res citation.VerificationResult
		if err := e.remote.Get(ctx, remoteKeyPrefix+key, &res); err == nil {
			e.metrics.CacheHit("remote")
			e.general.Add(key, res)
			return res
		} else if !errors.IsCode(err, errors.CodeCacheMiss) {
			e.logger.Warn("remote cache read failed", logging.String("key", key), logging.Err(err))
		}
	}
	e.metrics.CacheMiss()

	res := e.cascade(ctx, q)
	if ctx.Err() != nil {
		// Aborted mid-cascade: not a definitive answer, never cached.
		return timeoutResult()
	}
	e.store(ctx, key, res)
	return res
}

func (e *Engine) cascade(ctx context.Context, q citation.Query) citation.VerificationResult {
	lastReason := "no sources configured"
	for i, src := range e.sources {
		if ctx.Err() != nil {
			return timeoutResult()
		}
		res, err := e.trySource(ctx, src, q)
		if err != nil {
			e.metrics.SourceAttempt(src.Name(), "error")
			if errors.IsCode(err, errors.CodeAuthRequired) {
				e.logger.Warn("source rejected credentials, skipping",
					logging.String("source", src.Name()))
			} else {
				e.logger.Debug("source failed",
					logging.String("source", src.Name()), logging.Err(err))
			}
			lastReason = src.Name() + ": " + err.Error()
			continue
		}
		if res.Verified {
			e.metrics.SourceAttempt(src.Name(), "verified")
			return e.applyEvidence(res, q, i == 0)
		}
		e.metrics.SourceAttempt(src.Name(), "miss")
		if r := res.Details["reason"]; r != "" {
			lastReason = src.Name() + ": " + r
		}
	}
	return citation.Unverified(lastReason)
}

// trySource runs one source with exponential backoff on transient errors.
// Definitive negatives and non-transient errors are never retried.
func (e *Engine) trySource(ctx context.Context, src citation.Source, q citation.Query) (citation.VerificationResult, error) {
	var res citation.VerificationResult
	op := func() error {
		r, err := src.Verify(ctx, q)
		if err != nil {
			if errors.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		res = r
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.BackoffInitial
	bo.MaxInterval = e.cfg.BackoffMax
	bo.MaxElapsedTime = 0
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(e.cfg.Retries)), ctx))
	if err != nil {
		return citation.VerificationResult{}, err
	}
	return res, nil
}

// applyEvidence boosts a verified result's confidence when the context
// extraction corroborates the source's canonical record.
func (e *Engine) applyEvidence(res citation.VerificationResult, q citation.Query, primary bool) citation.VerificationResult {
	if res.Details == nil {
		res.Details = make(map[string]string)
	}
	if primary {
		res.Details["primary"] = "true"
	}
	if q.ExtractedCaseName != "" && res.CanonicalName != "" {
		score := textsim.Score(q.ExtractedCaseName, res.CanonicalName)
		if score >= e.cfg.NameMatchThreshold {
			res.Confidence += 0.15
			res.Details["name_match"] = "true"
		}
	}
	if q.ExtractedDate != "" && res.CanonicalDate != "" && yearOfDate(q.ExtractedDate) != "" &&
		yearOfDate(q.ExtractedDate) == yearOfDate(res.CanonicalDate) {
		res.Confidence += 0.10
		res.Details["date_match"] = "true"
	}
	if res.Confidence > 1.0 {
		res.Confidence = 1.0
	}
	return res
}

// store records a definitive result in every cache tier.  Results resolved
// by the primary source go to the long-TTL landmark cache as well, so
// frequently cited cases skip the cascade entirely.
func (e *Engine) store(ctx context.Context, key string, res citation.VerificationResult) {
	e.general.Add(key, res)
	if res.Verified && res.Details["primary"] == "true" {
		e.landmark.Add(key, res)
	}
	if e.remote != nil {
		if err := e.remote.Set(ctx, remoteKeyPrefix+key, res, e.cfg.CacheTTL); err != nil {
			e.logger.Warn("remote cache write failed", logging.String("key", key), logging.Err(err))
		}
	}
}

// CacheStats reports live entry counts, exposed for diagnostics.
func (e *Engine) CacheStats() (general, landmark int) {
	return e.general.Len(), e.landmark.Len()
}

func timeoutResult() citation.VerificationResult {
	res := citation.Unverified("verification timed out")
	res.Source = "timeout"
	return res
}

// yearOfDate pulls the 4-digit year out of a date in either "2006-01-17" or
// bare "2006" form.
func yearOfDate(date string) string {
	for i := 0; i+4 <= len(date); i++ {
		if isFourDigits(date[i : i+4]) {
			return date[i : i+4]
		}
	}
	return ""
}

func isFourDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
