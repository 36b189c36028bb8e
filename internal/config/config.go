// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

const (
	CatalogSourceFile   = "file"
	CatalogSourceSQLite = "sqlite"
	CatalogSourceMongo  = "mongo"
)

type Config struct {
	HTTPAddr       string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`

	CatalogSource         string        `envconfig:"CATALOG_SOURCE" default:"file"`
	CatalogPath           string        `envconfig:"CATALOG_PATH" default:"catalog.yaml"`
	CatalogReloadInterval time.Duration `envconfig:"CATALOG_RELOAD_INTERVAL" default:"0s"`
	CatalogSeedPath       string        `envconfig:"CATALOG_SEED_PATH"`

	DatabasePath    string `envconfig:"DATABASE_PATH" default:"moodmix.db"`
	MongoURL        string `envconfig:"MONGO_URL"`
	MongoDatabase   string `envconfig:"MONGO_DATABASE" default:"moodmix"`
	MongoCollection string `envconfig:"MONGO_COLLECTION" default:"tracks"`

	UnknownLabelPolicy     string  `envconfig:"UNKNOWN_LABEL_POLICY" default:"reject"`
	MinRelevance           float64 `envconfig:"MIN_RELEVANCE" default:"0"`
	MaxPerArtist           int     `envconfig:"MAX_PER_ARTIST" default:"0"`
	DefaultRecommendations int     `envconfig:"DEFAULT_RECOMMENDATIONS" default:"10"`
	MaxRecommendations     int     `envconfig:"MAX_RECOMMENDATIONS" default:"100"`

	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyRedirectURL  string `envconfig:"SPOTIFY_REDIRECT_URL" default:"http://localhost:8080/callback"`

	OllamaHost        string        `envconfig:"OLLAMA_HOST"`
	OllamaModel       string        `envconfig:"OLLAMA_MODEL" default:"llama3"`
	ClassifierTimeout time.Duration `envconfig:"CLASSIFIER_TIMEOUT" default:"30s"`

	HistoryWorkers   int `envconfig:"HISTORY_WORKERS" default:"2"`
	HistoryQueueSize int `envconfig:"HISTORY_QUEUE_SIZE" default:"256"`

	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RateLimitRequests  int           `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindow    time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

func NewConfig() (*Config, error) {
	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enum values and numeric ranges.
func (c *Config) Validate() error {
	switch c.CatalogSource {
	case CatalogSourceFile:
		if c.CatalogPath == "" {
			return fmt.Errorf("config: CATALOG_PATH is required for the file catalog source")
		}
	case CatalogSourceSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("config: DATABASE_PATH is required for the sqlite catalog source")
		}
	case CatalogSourceMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("config: MONGO_URL is required for the mongo catalog source")
		}
	default:
		return fmt.Errorf("config: unknown CATALOG_SOURCE %q", c.CatalogSource)
	}

	if c.CatalogSeedPath != "" && c.CatalogSource == CatalogSourceFile {
		return fmt.Errorf("config: CATALOG_SEED_PATH only applies to the sqlite and mongo catalog sources")
	}

	if !domain.UnknownLabelPolicy(c.UnknownLabelPolicy).Valid() {
		return fmt.Errorf("config: UNKNOWN_LABEL_POLICY must be %q or %q, got %q",
			domain.UnknownLabelReject, domain.UnknownLabelBucket, c.UnknownLabelPolicy)
	}
	if c.MinRelevance < 0 || c.MinRelevance >= 1 {
		return fmt.Errorf("config: MIN_RELEVANCE must be in [0,1), got %v", c.MinRelevance)
	}
	if c.MaxPerArtist < 0 {
		return fmt.Errorf("config: MAX_PER_ARTIST must not be negative")
	}
	if c.MaxRecommendations < 1 {
		return fmt.Errorf("config: MAX_RECOMMENDATIONS must be positive")
	}
	if c.DefaultRecommendations < 0 || c.DefaultRecommendations > c.MaxRecommendations {
		return fmt.Errorf("config: DEFAULT_RECOMMENDATIONS must be in [0,%d], got %d",
			c.MaxRecommendations, c.DefaultRecommendations)
	}
	if c.CatalogReloadInterval < 0 {
		return fmt.Errorf("config: CATALOG_RELOAD_INTERVAL must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return nil
}

// Logger builds the process logger from the log settings.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// SpotifyEnabled reports whether client credentials were supplied.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// ClassifierEnabled reports whether a classifier host was supplied.
func (c *Config) ClassifierEnabled() bool {
	return c.OllamaHost != ""
}
