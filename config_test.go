package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("WEKAN_HOST", "http://wekan.local")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://wekan.local", cfg.WekanHost)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("WEKAN_HOST", "http://wekan.local/")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	// trailing slash is trimmed so client paths join cleanly
	assert.Equal(t, "http://wekan.local", cfg.WekanHost)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadConfigRequiresHost(t *testing.T) {
	t.Setenv("WEKAN_HOST", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEKAN_HOST")
}
