// Package config provides configuration loading, defaults, and validation
// for caseguard.
package config

import (
	"time"

	"github.com/lexcite/caseguard/internal/intelligence/clustering"
	"github.com/lexcite/caseguard/internal/intelligence/verify"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultWorkers          = 8
	DefaultMaxLookback      = 200
	DefaultMaxDocumentBytes = 4 << 20

	DefaultCourtListenerBaseURL = "https://www.courtlistener.com/api/rest/v4"
	DefaultJustiaBaseURL        = "https://law.justia.com"
	DefaultCaseTextBaseURL      = "https://casetext.com"
	DefaultWebSearchBaseURL     = "https://html.duckduckgo.com"

	DefaultCallTimeout = 10 * time.Second
	DefaultRateLimit   = 500 * time.Millisecond

	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPrefix   = "caseguard:"
	DefaultRedisPoolSize = 10
	DefaultRedisTTL      = time.Hour

	DefaultMetricsAddr = ":9090"
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = DefaultWorkers
	}
	if cfg.Pipeline.MaxLookback == 0 {
		cfg.Pipeline.MaxLookback = DefaultMaxLookback
	}
	if cfg.Pipeline.MaxDocumentBytes == 0 {
		cfg.Pipeline.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	// Timeout 0 is meaningful (no deadline); leave it alone.

	// ── Verify / Clustering ───────────────────────────────────────────────────
	// The engines own their defaults; fill per-field so a partially-specified
	// section keeps the caller's overrides.
	vd := verify.DefaultConfig()
	if cfg.Verify.Retries == 0 {
		cfg.Verify.Retries = vd.Retries
	}
	if cfg.Verify.BackoffInitial == 0 {
		cfg.Verify.BackoffInitial = vd.BackoffInitial
	}
	if cfg.Verify.BackoffMax == 0 {
		cfg.Verify.BackoffMax = vd.BackoffMax
	}
	if cfg.Verify.CacheSize == 0 {
		cfg.Verify.CacheSize = vd.CacheSize
	}
	if cfg.Verify.CacheTTL == 0 {
		cfg.Verify.CacheTTL = vd.CacheTTL
	}
	if cfg.Verify.LandmarkCacheSize == 0 {
		cfg.Verify.LandmarkCacheSize = vd.LandmarkCacheSize
	}
	if cfg.Verify.LandmarkCacheTTL == 0 {
		cfg.Verify.LandmarkCacheTTL = vd.LandmarkCacheTTL
	}
	if cfg.Verify.NameMatchThreshold == 0 {
		cfg.Verify.NameMatchThreshold = vd.NameMatchThreshold
	}

	cd := clustering.DefaultConfig()
	if cfg.Clustering.MinConfidence == 0 {
		cfg.Clustering.MinConfidence = cd.MinConfidence
	}
	if cfg.Clustering.MaxProximity == 0 {
		cfg.Clustering.MaxProximity = cd.MaxProximity
	}
	if cfg.Clustering.SimilarityThreshold == 0 {
		cfg.Clustering.SimilarityThreshold = cd.SimilarityThreshold
	}
	if cfg.Clustering.YearTolerance == 0 {
		cfg.Clustering.YearTolerance = cd.YearTolerance
	}
	if cfg.Clustering.TokenWeight == 0 && cfg.Clustering.SequenceWeight == 0 {
		cfg.Clustering.TokenWeight = cd.TokenWeight
		cfg.Clustering.SequenceWeight = cd.SequenceWeight
	}
	if cfg.Clustering.MaxConfidenceSpread == 0 {
		cfg.Clustering.MaxConfidenceSpread = cd.MaxConfidenceSpread
	}
	if cfg.Clustering.MaxSpanWindow == 0 {
		cfg.Clustering.MaxSpanWindow = cd.MaxSpanWindow
	}

	// ── Sources ───────────────────────────────────────────────────────────────
	if cfg.Sources.CourtListener.BaseURL == "" {
		cfg.Sources.CourtListener.BaseURL = DefaultCourtListenerBaseURL
	}
	if cfg.Sources.JustiaBaseURL == "" {
		cfg.Sources.JustiaBaseURL = DefaultJustiaBaseURL
	}
	if cfg.Sources.CaseTextBaseURL == "" {
		cfg.Sources.CaseTextBaseURL = DefaultCaseTextBaseURL
	}
	if cfg.Sources.WebSearchBaseURL == "" {
		cfg.Sources.WebSearchBaseURL = DefaultWebSearchBaseURL
	}

	// ── HTTP ──────────────────────────────────────────────────────────────────
	if cfg.HTTP.CallTimeout == 0 {
		cfg.HTTP.CallTimeout = DefaultCallTimeout
	}
	if cfg.HTTP.DefaultRateLimit == 0 {
		cfg.HTTP.DefaultRateLimit = DefaultRateLimit
	}
	if cfg.HTTP.RateLimits == nil {
		// Scrapers get a longer leash than the public API so a batch run
		// never trips an operator ban.
		cfg.HTTP.RateLimits = map[string]time.Duration{
			"courtlistener.com": 350 * time.Millisecond,
			"justia.com":        time.Second,
			"casetext.com":      time.Second,
			"duckduckgo.com":    2 * time.Second,
		}
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisPrefix
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}

	// ── Monitoring ────────────────────────────────────────────────────────────
	if cfg.Monitoring.ListenAddr == "" {
		cfg.Monitoring.ListenAddr = DefaultMetricsAddr
	}
}
