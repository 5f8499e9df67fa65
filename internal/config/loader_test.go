package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
log:
  level: "debug"
  format: "console"
pipeline:
  workers: 4
  timeout: 90s
verify:
  retries: 3
  cache_ttl: 30m
sources:
  courtlistener:
    base_url: "https://www.courtlistener.com/api/rest/v4"
    token: "sekrit"
http:
  call_timeout: 5s
  rate_limits:
    courtlistener.com: 250ms
clustering:
  max_proximity: 400
  similarity_threshold: 0.8
redis:
  enabled: true
  addr: "localhost:6379"
monitoring:
  enabled: true
  listen_addr: ":9191"
`

func createTempConfigFile(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func setEnvVars(t *testing.T, vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		for k := range vars {
			os.Unsetenv(k)
		}
	})
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, 3, cfg.Verify.Retries)
	assert.Equal(t, 30*time.Minute, cfg.Verify.CacheTTL)
	assert.Equal(t, "sekrit", cfg.Sources.CourtListener.Token)
	assert.Equal(t, 5*time.Second, cfg.HTTP.CallTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.HTTP.RateLimits["courtlistener.com"])
	assert.Equal(t, 400, cfg.Clustering.MaxProximity)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, ":9191", cfg.Monitoring.ListenAddr)
}

func TestLoad_FromFile_AppliesDefaultsToUnsetFields(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	// Not mentioned in the YAML, so the defaults fill in.
	assert.Equal(t, DefaultMaxLookback, cfg.Pipeline.MaxLookback)
	assert.Equal(t, DefaultJustiaBaseURL, cfg.Sources.JustiaBaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Verify.LandmarkCacheTTL)
}

func TestLoad_RateLimits_DomainKeysKeepTheirDots(t *testing.T) {
	// Rate-limit keys are real domain names.  Every one of them contains at
	// least one dot, so they must survive loading as flat map keys instead of
	// being exploded into nested maps.
	yaml := `
sources:
  courtlistener:
    base_url: "https://www.courtlistener.com/api/rest/v4"
http:
  rate_limits:
    courtlistener.com: 250ms
    law.justia.com: 1s
    html.duckduckgo.com: 2s
`
	path := createTempConfigFile(t, yaml)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.HTTP.RateLimits["courtlistener.com"])
	assert.Equal(t, time.Second, cfg.HTTP.RateLimits["law.justia.com"])
	assert.Equal(t, 2*time.Second, cfg.HTTP.RateLimits["html.duckduckgo.com"])
	assert.Len(t, cfg.HTTP.RateLimits, 3)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "pipeline: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	invalid := `
pipeline:
  workers: -1
`
	path := createTempConfigFile(t, invalid)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"CASEGUARD_PIPELINE_WORKERS": "16",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Pipeline.Workers)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"CASEGUARD_REDIS_ADDR": "cache-host:6379",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cache-host:6379", cfg.Redis.Addr)
}

func TestLoadFromEnv_DefaultsOnly(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, DefaultCourtListenerBaseURL, cfg.Sources.CourtListener.BaseURL)
}

func TestWatch_DeliversUpdatedConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	updates := make(chan *Config, 1)
	Watch(path, func(cfg *Config) {
		select {
		case updates <- cfg:
		default:
		}
	})

	// Let the watcher register before rewriting the file.
	time.Sleep(100 * time.Millisecond)

	changed := strings.Replace(validConfigYAML, "workers: 4", "workers: 12", 1)
	require.NoError(t, os.WriteFile(path, []byte(changed), 0644))

	select {
	case cfg := <-updates:
		assert.Equal(t, 12, cfg.Pipeline.Workers)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not delivered")
	}
}

func TestWatch_SkipsInvalidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	updates := make(chan *Config, 1)
	Watch(path, func(cfg *Config) {
		select {
		case updates <- cfg:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)

	// A rewrite that fails validation must not reach the callback.
	broken := strings.Replace(validConfigYAML, "workers: 4", "workers: -1", 1)
	require.NoError(t, os.WriteFile(path, []byte(broken), 0644))

	select {
	case cfg := <-updates:
		t.Fatalf("callback ran with invalid config: workers=%d", cfg.Pipeline.Workers)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() { MustLoad("definitely_not_here.yaml") })
}
