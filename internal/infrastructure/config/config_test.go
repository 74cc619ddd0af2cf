package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	assert.Equal(t, SandboxBaseURL, cfg.BaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.ClientID)
	assert.False(t, cfg.Debug)
}

func TestConfig_LoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, SandboxBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
}

func TestConfig_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	contents := `{
  "client_id": "a7BhMO2W1b",
  "client_secret": "file-secret",
  "username": "merchant@example.com",
  "password": "file-pass",
  "base_url": "https://api-hermes.pathao.com",
  "cache_ttl": "24h",
  "timeout": "10s",
  "debug": true
}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "a7BhMO2W1b", cfg.ClientID)
	assert.Equal(t, "file-secret", cfg.ClientSecret)
	assert.Equal(t, "https://api-hermes.pathao.com", cfg.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.Debug)
}

func TestConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_id":"from-file","base_url":"https://from-file.example.com"}`), 0600))

	t.Setenv("PATHAO_CLIENT_ID", "from-env")
	t.Setenv("PATHAO_BASE_URL", "https://from-env.example.com")
	t.Setenv("PATHAO_CACHE_TTL", "48h")
	t.Setenv("PATHAO_DEBUG", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.ClientID)
	assert.Equal(t, "https://from-env.example.com", cfg.BaseURL)
	assert.Equal(t, 48*time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.Debug)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	original := Default()
	original.ClientID = "a7BhMO2W1b"
	original.ClientSecret = "round-trip-secret"
	original.Username = "merchant@example.com"
	original.Password = "round-trip-pass"
	original.CacheTTL = 48 * time.Hour

	require.NoError(t, original.Save(path))

	// Credentials live in this file; it must not be group or world readable.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, original.ClientID, loaded.ClientID)
	assert.Equal(t, original.ClientSecret, loaded.ClientSecret)
	assert.Equal(t, original.Username, loaded.Username)
	assert.Equal(t, original.Password, loaded.Password)
	assert.Equal(t, original.CacheTTL, loaded.CacheTTL)
	assert.Equal(t, original.Timeout, loaded.Timeout)
}

func TestConfig_LoadRejectsMalformedDurations(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{name: "bad cache_ttl", contents: `{"cache_ttl":"a week"}`},
		{name: "bad timeout", contents: `{"timeout":"soon"}`},
		{name: "not json", contents: `client_id = "nope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.contents), 0600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
