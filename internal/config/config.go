// Package config defines all configuration structures for caseguard.  No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/lexcite/caseguard/internal/infrastructure/monitoring/logging"
	"github.com/lexcite/caseguard/internal/intelligence/clustering"
	"github.com/lexcite/caseguard/internal/intelligence/verify"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// PipelineConfig holds document-analysis tunables.
type PipelineConfig struct {
	Workers          int           `mapstructure:"workers"`
	MaxLookback      int           `mapstructure:"max_lookback"`
	MaxDocumentBytes int64         `mapstructure:"max_document_bytes"`
	Timeout          time.Duration `mapstructure:"timeout"` // 0 means no deadline
}

// HTTPConfig holds the outbound-client tunables shared by every source.
// RateLimits maps a registrable domain (e.g. "courtlistener.com") to the
// minimum interval between requests to that domain; DefaultRateLimit applies
// to domains with no explicit entry.
type HTTPConfig struct {
	UserAgent        string                   `mapstructure:"user_agent"`
	CallTimeout      time.Duration            `mapstructure:"call_timeout"`
	RateLimits       map[string]time.Duration `mapstructure:"rate_limits"`
	DefaultRateLimit time.Duration            `mapstructure:"default_rate_limit"`
}

// SourcesConfig locates the verification back ends.  Disabled lists source
// names (as reported by Source.Name) to remove from the cascade without
// recompiling.
type SourcesConfig struct {
	CourtListener    verify.CourtListenerConfig `mapstructure:"courtlistener"`
	JustiaBaseURL    string                     `mapstructure:"justia_base_url"`
	CaseTextBaseURL  string                     `mapstructure:"casetext_base_url"`
	WebSearchBaseURL string                     `mapstructure:"websearch_base_url"`
	Disabled         []string                   `mapstructure:"disabled"`
}

// RedisConfig holds the optional shared verification-cache tier.  Disabled by
// default; single-process runs do fine on the in-memory caches.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
}

// MonitoringConfig holds the optional Prometheus metrics endpoint.
type MonitoringConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.  The verify, clustering, and
// log sections unmarshal straight into the owning packages' Config types so
// the knobs cannot drift from what the engines actually read.
type Config struct {
	Log        logging.Config    `mapstructure:"log"`
	Pipeline   PipelineConfig    `mapstructure:"pipeline"`
	Verify     verify.Config     `mapstructure:"verify"`
	Sources    SourcesConfig     `mapstructure:"sources"`
	HTTP       HTTPConfig        `mapstructure:"http"`
	Clustering clustering.Config `mapstructure:"clustering"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Monitoring MonitoringConfig  `mapstructure:"monitoring"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Pipeline
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("config: pipeline.workers must be ≥ 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.MaxLookback < 1 {
		return fmt.Errorf("config: pipeline.max_lookback must be ≥ 1, got %d", c.Pipeline.MaxLookback)
	}
	if c.Pipeline.MaxDocumentBytes < 1 {
		return fmt.Errorf("config: pipeline.max_document_bytes must be ≥ 1, got %d", c.Pipeline.MaxDocumentBytes)
	}
	if c.Pipeline.Timeout < 0 {
		return fmt.Errorf("config: pipeline.timeout must not be negative")
	}

	// Verify
	if c.Verify.Retries < 0 {
		return fmt.Errorf("config: verify.retries must be ≥ 0, got %d", c.Verify.Retries)
	}
	if c.Verify.BackoffInitial > c.Verify.BackoffMax {
		return fmt.Errorf("config: verify.backoff_initial %s exceeds verify.backoff_max %s",
			c.Verify.BackoffInitial, c.Verify.BackoffMax)
	}
	if c.Verify.CacheSize < 1 || c.Verify.LandmarkCacheSize < 1 {
		return fmt.Errorf("config: verify cache sizes must be ≥ 1")
	}
	if c.Verify.NameMatchThreshold < 0 || c.Verify.NameMatchThreshold > 1 {
		return fmt.Errorf("config: verify.name_match_threshold %.2f is out of range [0, 1]", c.Verify.NameMatchThreshold)
	}

	// Sources
	if c.Sources.CourtListener.BaseURL == "" {
		return fmt.Errorf("config: sources.courtlistener.base_url is required")
	}

	// HTTP
	if c.HTTP.CallTimeout < 1 {
		return fmt.Errorf("config: http.call_timeout must be positive")
	}
	if c.HTTP.DefaultRateLimit < 0 {
		return fmt.Errorf("config: http.default_rate_limit must not be negative")
	}

	// Clustering
	if c.Clustering.MinConfidence < 0 || c.Clustering.MinConfidence > 1 {
		return fmt.Errorf("config: clustering.min_confidence %.2f is out of range [0, 1]", c.Clustering.MinConfidence)
	}
	if c.Clustering.SimilarityThreshold < 0 || c.Clustering.SimilarityThreshold > 1 {
		return fmt.Errorf("config: clustering.similarity_threshold %.2f is out of range [0, 1]", c.Clustering.SimilarityThreshold)
	}
	if c.Clustering.MaxProximity < 1 {
		return fmt.Errorf("config: clustering.max_proximity must be ≥ 1, got %d", c.Clustering.MaxProximity)
	}
	if c.Clustering.YearTolerance < 0 {
		return fmt.Errorf("config: clustering.year_tolerance must be ≥ 0, got %d", c.Clustering.YearTolerance)
	}
	if c.Clustering.TokenWeight < 0 || c.Clustering.SequenceWeight < 0 {
		return fmt.Errorf("config: clustering similarity weights must not be negative")
	}
	if c.Clustering.TokenWeight+c.Clustering.SequenceWeight <= 0 {
		return fmt.Errorf("config: clustering similarity weights must sum to a positive value")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when redis.enabled is true")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// Monitoring
	if c.Monitoring.Enabled && c.Monitoring.ListenAddr == "" {
		return fmt.Errorf("config: monitoring.listen_addr is required when monitoring.enabled is true")
	}

	return nil
}
