package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
	assert.Equal(t, "https://api.elections.kalshi.com/trade-api/v2", cfg.Kalshi.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Fetch.RequestTimeout.Duration)
	assert.Equal(t, 3, cfg.Fetch.RetryAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Fetch.RetryBaseDelay.Duration)
	assert.Equal(t, "1d", cfg.Fetch.HistoryInterval)
	assert.Equal(t, "prompt", cfg.Output)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Output = "xml"
	cfg.LogLevel = "loud"
	cfg.Polymarket.GammaHost = ""
	cfg.Fetch.RetryAttempts = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output "xml"`)
	assert.Contains(t, err.Error(), `unknown log_level "loud"`)
	assert.Contains(t, err.Error(), "gamma_host must not be empty")
	assert.Contains(t, err.Error(), "retry_attempts must be >= 1")
}

func TestValidateKalshiKeyPairing(t *testing.T) {
	cfg := Defaults()
	cfg.Kalshi.RsaPrivateKeyPath = "/tmp/key.pem"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key is required when rsa_private_key_path is set")

	cfg.Kalshi.ApiKey = "key-id"
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Polymarket, cfg.Polymarket)
	assert.Equal(t, "prompt", cfg.Output)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketsnap.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
output = "json"
log_level = "debug"

[kalshi]
base_url = "https://demo-api.kalshi.co/trade-api/v2"

[fetch]
request_timeout = "5s"
retry_attempts = 5
history_interval = "1h"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://demo-api.kalshi.co/trade-api/v2", cfg.Kalshi.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Fetch.RequestTimeout.Duration)
	assert.Equal(t, 5, cfg.Fetch.RetryAttempts)
	assert.Equal(t, "1h", cfg.Fetch.HistoryInterval)

	// Untouched sections keep their defaults.
	assert.Equal(t, Defaults().Polymarket, cfg.Polymarket)
	assert.Equal(t, 100, cfg.Fetch.TradesLimit)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`output = `), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MARKETSNAP_POLYMARKET_GAMMA_HOST", "http://localhost:9100")
	t.Setenv("MARKETSNAP_KALSHI_API_KEY", "env-key")
	t.Setenv("MARKETSNAP_FETCH_RETRY_ATTEMPTS", "7")
	t.Setenv("MARKETSNAP_FETCH_WITH_TRADES", "true")
	t.Setenv("MARKETSNAP_FETCH_REQUEST_TIMEOUT", "30s")
	t.Setenv("MARKETSNAP_OUTPUT", "json")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, "http://localhost:9100", cfg.Polymarket.GammaHost)
	assert.Equal(t, "env-key", cfg.Kalshi.ApiKey)
	assert.Equal(t, 7, cfg.Fetch.RetryAttempts)
	assert.True(t, cfg.Fetch.WithTrades)
	assert.Equal(t, 30*time.Second, cfg.Fetch.RequestTimeout.Duration)
	assert.Equal(t, "json", cfg.Output)
}

func TestEnvOverridesIgnoreInvalidValues(t *testing.T) {
	t.Setenv("MARKETSNAP_FETCH_RETRY_ATTEMPTS", "many")
	t.Setenv("MARKETSNAP_FETCH_WITH_BOOKS", "sure")
	t.Setenv("MARKETSNAP_FETCH_REQUEST_TIMEOUT", "soon")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, 3, cfg.Fetch.RetryAttempts)
	assert.False(t, cfg.Fetch.WithBooks)
	assert.Equal(t, 10*time.Second, cfg.Fetch.RequestTimeout.Duration)
}

func TestDurationRoundTrip(t *testing.T) {
	var d duration
	require.NoError(t, d.UnmarshalText([]byte("250ms")))
	assert.Equal(t, 250*time.Millisecond, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "250ms", string(text))

	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
}
