// Package config defines the configuration for the marketsnap fetcher and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MARKETSNAP_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Fetch      FetchConfig      `toml:"fetch"`
	Output     string           `toml:"output"` // "prompt" or "json"
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the Polymarket API hosts.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	ClobHost  string `toml:"clob_host"`
	DataHost  string `toml:"data_host"`
}

// KalshiConfig holds the Kalshi API host and optional signing credentials.
// Market data is public; a key only raises rate limits.
type KalshiConfig struct {
	BaseURL           string `toml:"base_url"`
	ApiKey            string `toml:"api_key"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
}

// FetchConfig holds the per-call fetch defaults and the retry budget shared
// by all sub-fetches.
type FetchConfig struct {
	RequestTimeout  duration `toml:"request_timeout"`
	RetryAttempts   int      `toml:"retry_attempts"`
	RetryBaseDelay  duration `toml:"retry_base_delay"`
	HistoryInterval string   `toml:"history_interval"`
	WithBooks       bool     `toml:"with_books"`
	WithTrades      bool     `toml:"with_trades"`
	TradesLimit     int      `toml:"trades_limit"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "200ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "200ms".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			ClobHost:  "https://clob.polymarket.com",
			DataHost:  "https://data-api.polymarket.com",
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
		},
		Fetch: FetchConfig{
			RequestTimeout:  duration{10 * time.Second},
			RetryAttempts:   3,
			RetryBaseDelay:  duration{200 * time.Millisecond},
			HistoryInterval: "1d",
			WithBooks:       false,
			WithTrades:      false,
			TradesLimit:     100,
		},
		Output:   "prompt",
		LogLevel: "info",
	}
}

// validOutputs enumerates the accepted values for Config.Output.
var validOutputs = map[string]bool{
	"prompt": true,
	"json":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validOutputs[strings.ToLower(c.Output)] {
		errs = append(errs, fmt.Sprintf("unknown output %q (valid: prompt, json)", c.Output))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.DataHost == "" {
		errs = append(errs, "polymarket: data_host must not be empty")
	}

	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Kalshi.RsaPrivateKeyPath != "" && c.Kalshi.ApiKey == "" {
		errs = append(errs, "kalshi: api_key is required when rsa_private_key_path is set")
	}

	if c.Fetch.RequestTimeout.Duration <= 0 {
		errs = append(errs, "fetch: request_timeout must be positive")
	}
	if c.Fetch.RetryAttempts < 1 {
		errs = append(errs, "fetch: retry_attempts must be >= 1")
	}
	if c.Fetch.RetryBaseDelay.Duration <= 0 {
		errs = append(errs, "fetch: retry_base_delay must be positive")
	}
	if c.Fetch.TradesLimit < 1 {
		errs = append(errs, "fetch: trades_limit must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
