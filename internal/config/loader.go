package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETSNAP_* environment variable overrides, and
// returns the final Config. A missing file is not an error; the tool runs on
// defaults plus environment alone. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETSNAP_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject hosts and credentials at run time
// without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "MARKETSNAP_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "MARKETSNAP_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.DataHost, "MARKETSNAP_POLYMARKET_DATA_HOST")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "MARKETSNAP_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.ApiKey, "MARKETSNAP_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "MARKETSNAP_KALSHI_RSA_PRIVATE_KEY_PATH")

	// ── Fetch ──
	setDuration(&cfg.Fetch.RequestTimeout, "MARKETSNAP_FETCH_REQUEST_TIMEOUT")
	setInt(&cfg.Fetch.RetryAttempts, "MARKETSNAP_FETCH_RETRY_ATTEMPTS")
	setDuration(&cfg.Fetch.RetryBaseDelay, "MARKETSNAP_FETCH_RETRY_BASE_DELAY")
	setStr(&cfg.Fetch.HistoryInterval, "MARKETSNAP_FETCH_HISTORY_INTERVAL")
	setBool(&cfg.Fetch.WithBooks, "MARKETSNAP_FETCH_WITH_BOOKS")
	setBool(&cfg.Fetch.WithTrades, "MARKETSNAP_FETCH_WITH_TRADES")
	setInt(&cfg.Fetch.TradesLimit, "MARKETSNAP_FETCH_TRADES_LIMIT")

	// ── Top-level ──
	setStr(&cfg.Output, "MARKETSNAP_OUTPUT")
	setStr(&cfg.LogLevel, "MARKETSNAP_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
