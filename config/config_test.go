package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORTFOLIO_DATABASE_PATH", "data/test.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, filepath.IsAbs(cfg.DatabasePath))
	assert.True(t, filepath.IsAbs(cfg.MediaStoragePath))
	assert.True(t, cfg.MediaEnabled)
	assert.Equal(t, 400, cfg.ThumbnailMaxSize)
	assert.False(t, cfg.TranslationConfigured())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PORTFOLIO_THUMBNAIL_MAX_SIZE", "-5")
	t.Setenv("PORTFOLIO_NUM_THUMBNAIL_WORKERS", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultThumbnailMaxSize, cfg.ThumbnailMaxSize)
	assert.Equal(t, defaultNumThumbnailWorkers, cfg.NumThumbnailWorkers)
}

func TestLoadConfigRejectsMalformedValues(t *testing.T) {
	t.Setenv("PORTFOLIO_THUMBNAIL_QUEUE_SIZE", "lots")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestTranslationConfigured(t *testing.T) {
	assert.True(t, Config{OpenAIAPIKey: "k"}.TranslationConfigured())
	assert.False(t, Config{WorkersAIAccountID: "acct"}.TranslationConfigured())
	assert.True(t, Config{WorkersAIAccountID: "acct", WorkersAIAPIToken: "tok"}.TranslationConfigured())
}

func TestPublicBaseURLTrimmed(t *testing.T) {
	t.Setenv("PORTFOLIO_PUBLIC_BASE_URL", "https://example.org/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", cfg.PublicBaseURL)
}

func TestLogFormatAndTokenTTL(t *testing.T) {
	t.Setenv("PORTFOLIO_LOG_FORMAT", "Console")
	t.Setenv("PORTFOLIO_TOKEN_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.ConsoleLogs())
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
}
