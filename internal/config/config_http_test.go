package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_HTTPDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/app/web", cfg.HTTP.UIStaticDir)
	assert.True(t, cfg.HTTP.UIEnabled)
	assert.Equal(t, 20, cfg.HTTP.MaxUploadMB)
	assert.Equal(t, int64(20<<20), cfg.HTTP.MaxUploadBytes())
	assert.Nil(t, cfg.HTTP.CORSOrigins)
}

func TestNewFromEnv_CORSOriginsList(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://subloc.example ,")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://localhost:5173", "https://subloc.example"}, cfg.HTTP.CORSOrigins)
}
