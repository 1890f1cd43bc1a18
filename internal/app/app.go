// Package app wires the platform adapters, fetch orchestrator, and output
// renderers together and runs a single URL-to-output fetch.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/wolonglabs/marketsnap/internal/config"
	"github.com/wolonglabs/marketsnap/internal/domain"
	"github.com/wolonglabs/marketsnap/internal/fetcher"
	"github.com/wolonglabs/marketsnap/internal/httpx"
	"github.com/wolonglabs/marketsnap/internal/platform"
	"github.com/wolonglabs/marketsnap/internal/platform/kalshi"
	"github.com/wolonglabs/marketsnap/internal/platform/polymarket"
	"github.com/wolonglabs/marketsnap/internal/prompt"
)

// App owns the configuration, logger, and the wired fetcher for one process
// lifetime.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	fetcher *fetcher.Fetcher
	out     io.Writer
}

// New wires all dependencies from the configuration. The single HTTP client
// is shared by every adapter; it pools connections and carries no call state.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	httpClient := httpx.NewClient(cfg.Fetch.RequestTimeout.Duration)

	kalshiClient := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey, httpClient)
	if cfg.Kalshi.RsaPrivateKeyPath != "" {
		pemBytes, err := os.ReadFile(cfg.Kalshi.RsaPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("app: read kalshi private key: %w", err)
		}
		if err := kalshiClient.SetRSAPrivateKey(pemBytes); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}

	adapters := platform.Registry{
		domain.PlatformPolymarket: polymarket.NewAdapter(
			cfg.Polymarket.GammaHost,
			cfg.Polymarket.ClobHost,
			cfg.Polymarket.DataHost,
			httpClient,
		),
		domain.PlatformKalshi: kalshi.NewAdapter(kalshiClient),
	}

	retry := httpx.RetryPolicy{
		Attempts:  cfg.Fetch.RetryAttempts,
		BaseDelay: cfg.Fetch.RetryBaseDelay.Duration,
	}

	return &App{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "app")),
		fetcher: fetcher.New(adapters, retry, logger),
		out:     os.Stdout,
	}, nil
}

// Run fetches the market behind rawURL and writes the rendered output. The
// fetch options come from configuration; the caller already merged any
// command-line overrides into cfg.
func (a *App) Run(ctx context.Context, rawURL string) error {
	opts := fetcher.Options{
		HistoryInterval: a.cfg.Fetch.HistoryInterval,
		WithBooks:       a.cfg.Fetch.WithBooks,
		WithTrades:      a.cfg.Fetch.WithTrades,
		TradesLimit:     a.cfg.Fetch.TradesLimit,
	}

	payload, err := a.fetcher.Fetch(ctx, rawURL, opts)
	if err != nil {
		return err
	}

	switch a.cfg.Output {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("app: encode payload: %w", err)
		}
	default:
		if _, err := io.WriteString(a.out, prompt.BuildAnalysisPrompt(payload)); err != nil {
			return fmt.Errorf("app: write prompt: %w", err)
		}
	}

	return nil
}
