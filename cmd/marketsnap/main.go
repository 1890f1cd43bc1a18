// Command marketsnap fetches a point-in-time snapshot of a Polymarket or
// Kalshi prediction market from its URL and prints either a long-form
// analysis prompt or the raw normalized payload as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wolonglabs/marketsnap/internal/app"
	"github.com/wolonglabs/marketsnap/internal/config"
	"github.com/wolonglabs/marketsnap/internal/domain"
)

func main() {
	configPath := flag.String("config", "marketsnap.toml", "path to configuration file")
	marketURL := flag.String("url", "", "prediction market URL (Polymarket event or Kalshi market)")
	interval := flag.String("interval", "", "history granularity, e.g. 1h, 1d (default from config)")
	withBooks := flag.Bool("books", false, "include best bid/ask from order books")
	withTrades := flag.Bool("trades", false, "include recent trades")
	tradesLimit := flag.Int("trades-limit", 0, "max trades to fetch (default from config)")
	output := flag.String("out", "", "output format: prompt or json (default from config)")
	flag.Parse()

	if *marketURL == "" {
		fmt.Fprintln(os.Stderr, "usage: marketsnap -url <market-url> [-interval 1d] [-books] [-trades] [-out prompt|json]")
		os.Exit(2)
	}

	// Logs go to stderr so the rendered output on stdout stays pipeable.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Command-line flags override config for this invocation.
	if *interval != "" {
		cfg.Fetch.HistoryInterval = *interval
	}
	if *withBooks {
		cfg.Fetch.WithBooks = true
	}
	if *withTrades {
		cfg.Fetch.WithTrades = true
	}
	if *tradesLimit > 0 {
		cfg.Fetch.TradesLimit = *tradesLimit
	}
	if *output != "" {
		cfg.Output = *output
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to wire application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ctrl-C cancels the in-flight fetch and all its sub-requests.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, *marketURL); err != nil {
		// A cancelled run exits quietly; the user asked for it.
		if errors.Is(err, domain.ErrCancelled) || errors.Is(err, context.Canceled) {
			logger.Info("fetch cancelled")
			os.Exit(130)
		}
		logger.Error("fetch failed", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, domain.UserMessage(err))
		os.Exit(1)
	}
}
