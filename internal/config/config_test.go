package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, CatalogSourceFile, cfg.CatalogSource)
	assert.Equal(t, "reject", cfg.UnknownLabelPolicy)
	assert.Equal(t, 10, cfg.DefaultRecommendations)
	assert.Equal(t, 100, cfg.MaxRecommendations)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.False(t, cfg.SpotifyEnabled())
	assert.False(t, cfg.ClassifierEnabled())
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "sqlite")
	t.Setenv("DATABASE_PATH", "/tmp/moodmix.db")
	t.Setenv("UNKNOWN_LABEL_POLICY", "bucket")
	t.Setenv("CATALOG_RELOAD_INTERVAL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, CatalogSourceSQLite, cfg.CatalogSource)
	assert.Equal(t, "bucket", cfg.UnknownLabelPolicy)
	assert.Equal(t, 30*time.Second, cfg.CatalogReloadInterval)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.ClassifierEnabled())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			LogLevel:               "info",
			CatalogSource:          CatalogSourceFile,
			CatalogPath:            "catalog.yaml",
			DatabasePath:           "moodmix.db",
			UnknownLabelPolicy:     "reject",
			DefaultRecommendations: 10,
			MaxRecommendations:     100,
		}
	}

	tests := []struct {
		name     string
		mutate   func(c *Config)
		errMatch string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown source", mutate: func(c *Config) { c.CatalogSource = "s3" }, errMatch: "unknown CATALOG_SOURCE"},
		{name: "mongo without url", mutate: func(c *Config) { c.CatalogSource = CatalogSourceMongo }, errMatch: "MONGO_URL"},
		{name: "bad policy", mutate: func(c *Config) { c.UnknownLabelPolicy = "ignore" }, errMatch: "UNKNOWN_LABEL_POLICY"},
		{name: "relevance out of range", mutate: func(c *Config) { c.MinRelevance = 1 }, errMatch: "MIN_RELEVANCE"},
		{name: "default above max", mutate: func(c *Config) { c.DefaultRecommendations = 101 }, errMatch: "DEFAULT_RECOMMENDATIONS"},
		{name: "zero max", mutate: func(c *Config) { c.MaxRecommendations = 0 }, errMatch: "MAX_RECOMMENDATIONS"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, errMatch: "LOG_LEVEL"},
		{name: "seed with file source", mutate: func(c *Config) { c.CatalogSeedPath = "seed.yaml" }, errMatch: "CATALOG_SEED_PATH"},
		{name: "sqlite without database path", mutate: func(c *Config) { c.CatalogSource = CatalogSourceSQLite; c.DatabasePath = "" }, errMatch: "DATABASE_PATH"},
		{name: "seed with sqlite source", mutate: func(c *Config) { c.CatalogSource = CatalogSourceSQLite; c.CatalogSeedPath = "seed.yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMatch == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMatch)
		})
	}
}

func TestConfig_Logger(t *testing.T) {
	cfg := Config{LogLevel: "debug", LogDevelopment: true}
	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))
}
