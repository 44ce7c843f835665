package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every config key for the test and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"API_BASE", "RESTAURANT_NAME", "POLL_INTERVAL", "PUSH_PATH", "PUSH_RETRY_INTERVAL", "REQUEST_TIMEOUT", "AUTH_TOKEN"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.APIBase)
	assert.Equal(t, 6*time.Second, cfg.PollInterval)
	assert.Equal(t, "/ws/orders", cfg.PushPath)
	assert.Zero(t, cfg.PushRetryInterval)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.AuthToken)
	assert.Empty(t, cfg.RestaurantName)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE", "https://api.example.com/api")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("PUSH_RETRY_INTERVAL", "30s")
	t.Setenv("RESTAURANT_NAME", "Trattoria")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api", cfg.APIBase)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.PushRetryInterval)
	assert.Equal(t, "Trattoria", cfg.RestaurantName)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AUTH_TOKEN=abc.def.ghi\nPOLL_INTERVAL=3s\n"), 0o600))
	t.Setenv("AUTH_TOKEN", "from-env")

	cfg, err := Load(envFile)

	require.NoError(t, err)
	// Variables already in the environment win over the file.
	assert.Equal(t, "from-env", cfg.AuthToken)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unsupported scheme", key: "API_BASE", value: "ftp://example.com/api"},
		{name: "zero poll interval", key: "POLL_INTERVAL", value: "0s"},
		{name: "negative retry", key: "PUSH_RETRY_INTERVAL", value: "-1s"},
		{name: "unparsable duration", key: "POLL_INTERVAL", value: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
