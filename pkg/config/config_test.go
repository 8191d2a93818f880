package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Graph.Driver)
	assert.Equal(t, 0.2, cfg.Dataset.TestFraction)
	assert.Equal(t, int64(42), cfg.Dataset.Seed)
	assert.Equal(t, 5000, cfg.Classifier.MaxFeatures)
	assert.Equal(t, "hybrid", cfg.Diagnosis.Engine)
	assert.Equal(t, 3, cfg.Diagnosis.TopK)
	assert.Equal(t, 0.6, cfg.Diagnosis.ClassifierAlpha)
	assert.Equal(t, 200, cfg.Medline.SleepMillis)
	assert.False(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadOverride(t *testing.T) {
	viper.Reset()
	viper.Set("server.port", 9090)
	viper.Set("graph.driver", "neo4j")
	viper.Set("diagnosis.engine", "graph")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "neo4j", cfg.Graph.Driver)
	assert.Equal(t, "graph", cfg.Diagnosis.Engine)
}

func TestEnvOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("NEO4J_URI", "bolt://db.internal:7687")
	t.Setenv("NEO4J_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://db.internal:7687", cfg.Graph.URI)
	assert.Equal(t, "secret", cfg.Graph.Password)
}
