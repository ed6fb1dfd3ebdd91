package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. PORTFOLIO_PORT.
const EnvPrefix = "PORTFOLIO"

const (
	AppEnvDevelopment = "development"
	AppEnvProduction  = "production"
)

const (
	defaultThumbnailMaxSize    = 400
	defaultThumbnailQueueSize  = 100
	defaultNumThumbnailWorkers = 2
	defaultMaxUploadBytes      = 20 << 20
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json or console

	// database path (SQLite file)
	DatabasePath string `envconfig:"DATABASE_PATH" default:"portfolio.db"`

	// blob storage configuration
	MediaEnabled     bool   `envconfig:"MEDIA_ENABLED" default:"true"`
	MediaStoragePath string `envconfig:"MEDIA_STORAGE_PATH" default:"./media_storage"`
	PublicBaseURL    string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	MaxUploadBytes   int64  `envconfig:"MAX_UPLOAD_BYTES" default:"20971520"`

	// thumbnail generation settings
	ThumbnailMaxSize    int `envconfig:"THUMBNAIL_MAX_SIZE" default:"400"`
	ThumbnailQueueSize  int `envconfig:"THUMBNAIL_QUEUE_SIZE" default:"100"`
	NumThumbnailWorkers int `envconfig:"NUM_THUMBNAIL_WORKERS" default:"2"`

	// write access
	APIToken     string        `envconfig:"API_TOKEN"`
	APITokenHash string        `envconfig:"API_TOKEN_HASH"`
	JWTSecret    string        `envconfig:"JWT_SECRET"`
	TokenTTL     time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// machine translation
	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	OpenAIModel         string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL       string        `envconfig:"OPENAI_BASE_URL"`
	WorkersAIAccountID  string        `envconfig:"WORKERS_AI_ACCOUNT_ID"`
	WorkersAIAPIToken   string        `envconfig:"WORKERS_AI_API_TOKEN"`
	RedisURL            string        `envconfig:"REDIS_URL"`
	TranslationCacheTTL time.Duration `envconfig:"TRANSLATION_CACHE_TTL" default:"24h"`

	ExposeErrorDetails bool `envconfig:"EXPOSE_ERROR_DETAILS" default:"true"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, AppEnvProduction)
}

// TranslationConfigured reports whether at least one translation engine has credentials.
func (c Config) TranslationConfigured() bool {
	return c.OpenAIAPIKey != "" || (c.WorkersAIAccountID != "" && c.WorkersAIAPIToken != "")
}

// ConsoleLogs reports whether logs should be written in human-readable form.
func (c Config) ConsoleLogs() bool {
	return strings.EqualFold(c.LogFormat, "console")
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.DatabasePath != ":memory:" {
		absDB, err := filepath.Abs(cfg.DatabasePath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute path for database '%s': %w", cfg.DatabasePath, err)
		}
		cfg.DatabasePath = absDB
	}

	absMediaStorage, err := filepath.Abs(cfg.MediaStoragePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", cfg.MediaStoragePath, err)
	}
	cfg.MediaStoragePath = absMediaStorage
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	cfg.ThumbnailMaxSize = positiveOrDefault("THUMBNAIL_MAX_SIZE", cfg.ThumbnailMaxSize, defaultThumbnailMaxSize)
	cfg.ThumbnailQueueSize = positiveOrDefault("THUMBNAIL_QUEUE_SIZE", cfg.ThumbnailQueueSize, defaultThumbnailQueueSize)
	cfg.NumThumbnailWorkers = positiveOrDefault("NUM_THUMBNAIL_WORKERS", cfg.NumThumbnailWorkers, defaultNumThumbnailWorkers)
	if cfg.TokenTTL <= 0 {
		log.Printf("Warning: Invalid TOKEN_TTL '%s'. Using default 24h.", cfg.TokenTTL)
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		log.Printf("Warning: Invalid MAX_UPLOAD_BYTES '%d'. Using default %d.", cfg.MaxUploadBytes, defaultMaxUploadBytes)
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	return cfg, nil
}

func positiveOrDefault(name string, val, defaultVal int) int {
	if val <= 0 {
		log.Printf("Warning: Invalid %s '%d'. Using default %d.", name, val, defaultVal)
		return defaultVal
	}
	return val
}
