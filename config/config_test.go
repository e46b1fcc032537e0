package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.0-flash-lite", cfg.Gemini.LiteModel)
	assert.Equal(t, float32(0.3), cfg.Gemini.Temperature)
	assert.Equal(t, int32(8192), cfg.Gemini.MaxOutputTokens)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, float64(144), cfg.Ingest.RasterDPI)
	assert.Equal(t, int64(10*1024*1024), cfg.Ingest.MaxFileSize)
	assert.True(t, cfg.Ingest.DescribeVisuals)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "9090")
	t.Setenv("LITE_MODEL", "gemini-test-lite")
	t.Setenv("ADVANCED_MODEL", "gemini-test-pro")
	t.Setenv("RASTER_DPI", "200")
	t.Setenv("DESCRIBE_VISUALS", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "gemini-test-lite", cfg.Gemini.LiteModel)
	assert.Equal(t, "gemini-test-pro", cfg.Gemini.AdvancedModel)
	assert.Equal(t, float64(200), cfg.Ingest.RasterDPI)
	assert.False(t, cfg.Ingest.DescribeVisuals)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("AWS_S3_BUCKET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_S3_BUCKET")
}
