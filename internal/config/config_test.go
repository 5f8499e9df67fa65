package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcite/caseguard/internal/config"
)

// validConfig returns a Config that passes Validate() with every section
// populated by defaults.
func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestConfig_Validate_InvalidLogFormat(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Log.Format = "logfmt"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestConfig_Validate_InvalidWorkers(t *testing.T) {
	t.Parallel()
	cases := []int{0, -1}
	for _, w := range cases {
		w := w
		t.Run("", func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			cfg.Pipeline.Workers = w
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pipeline.workers")
		})
	}
}

func TestConfig_Validate_BackoffOrdering(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Verify.BackoffInitial = 10 * time.Second
	cfg.Verify.BackoffMax = time.Second
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backoff_initial")
}

func TestConfig_Validate_NameMatchThresholdRange(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Verify.NameMatchThreshold = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name_match_threshold")
}

func TestConfig_Validate_MissingCourtListenerBaseURL(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Sources.CourtListener.BaseURL = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "courtlistener.base_url")
}

func TestConfig_Validate_SimilarityWeights(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Clustering.TokenWeight = 0
	cfg.Clustering.SequenceWeight = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestConfig_Validate_NegativeWeightRejected(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Clustering.TokenWeight = -1
	cfg.Clustering.SequenceWeight = 2
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestConfig_Validate_RedisAddrRequiredWhenEnabled(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.addr")
}

func TestConfig_Validate_RedisDisabledSkipsChecks(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Redis.Enabled = false
	cfg.Redis.Addr = ""
	assert.NoError(t, cfg.Validate())
}
