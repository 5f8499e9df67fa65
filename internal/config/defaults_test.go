package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, DefaultCourtListenerBaseURL, cfg.Sources.CourtListener.BaseURL)
	assert.Equal(t, 2, cfg.Verify.Retries)
	assert.Equal(t, 500, cfg.Clustering.MaxProximity)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Pipeline.Workers = 2
	cfg.Verify.CacheTTL = 5 * time.Minute
	cfg.Clustering.SimilarityThreshold = 0.9
	ApplyDefaults(cfg)

	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 5*time.Minute, cfg.Verify.CacheTTL)
	assert.Equal(t, 0.9, cfg.Clustering.SimilarityThreshold)
}

func TestApplyDefaults_SimilarityWeightsFilledTogether(t *testing.T) {
	cfg := &Config{}
	cfg.Clustering.TokenWeight = 0.8
	ApplyDefaults(cfg)

	// A half-specified weight pair is left alone so the caller's intent
	// (sequence matching off) survives.
	assert.Equal(t, 0.8, cfg.Clustering.TokenWeight)
	assert.Equal(t, 0.0, cfg.Clustering.SequenceWeight)
}

func TestApplyDefaults_NilConfig(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
