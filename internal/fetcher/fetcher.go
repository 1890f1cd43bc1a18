// Package fetcher implements the fetch orchestrator: it resolves a market
// URL to a platform adapter, drives the adapter's sub-fetches with bounded
// retries, and assembles the normalized snapshot. The mandatory facts fetch
// runs first and alone so identity errors fail fast; current state, history,
// and trades then run concurrently and degrade to empty on failure.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wolonglabs/marketsnap/internal/domain"
	"github.com/wolonglabs/marketsnap/internal/httpx"
	"github.com/wolonglabs/marketsnap/internal/platform"
	"github.com/wolonglabs/marketsnap/internal/resolver"
)

// Options configures one fetch. The zero value is not usable; call
// DefaultOptions and override.
type Options struct {
	// HistoryInterval is the requested history granularity, e.g. "1h", "1d".
	HistoryInterval string
	// WithBooks includes best bid/ask from order-book data in current state.
	WithBooks bool
	// WithTrades enables the recent-trades fetch.
	WithTrades bool
	// TradesLimit caps the trade fetch when WithTrades is set.
	TradesLimit int
}

// DefaultOptions returns the defaults: daily history, no books, no trades.
func DefaultOptions() Options {
	return Options{HistoryInterval: "1d", TradesLimit: 100}
}

// normalize fills in zero-valued fields so adapters never see empty
// parameters.
func (o *Options) normalize() {
	if o.HistoryInterval == "" {
		o.HistoryInterval = "1d"
	}
	if o.TradesLimit <= 0 {
		o.TradesLimit = 100
	}
}

// Fetcher is the single entry point for turning a market URL into a
// MarketPayload. It holds no per-call state and is safe for concurrent use.
type Fetcher struct {
	adapters platform.Registry
	retry    httpx.RetryPolicy
	logger   *slog.Logger
}

// New creates a Fetcher over the given adapter registry.
func New(adapters platform.Registry, retry httpx.RetryPolicy, logger *slog.Logger) *Fetcher {
	if retry.Attempts < 1 {
		retry = httpx.DefaultRetryPolicy
	}
	return &Fetcher{
		adapters: adapters,
		retry:    retry,
		logger:   logger.With(slog.String("component", "fetcher")),
	}
}

// Fetch resolves rawURL, runs the platform sub-fetches, and returns the
// assembled snapshot. It fails only on resolver errors, a failed facts fetch,
// or cancellation; every other sub-fetch failure degrades its field to an
// empty slice. The returned payload is structurally complete: StateNow,
// History, and Trades are non-nil even when empty.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (*domain.MarketPayload, error) {
	opts.normalize()

	tag, nativeID, err := resolver.Resolve(rawURL)
	if err != nil {
		return nil, err
	}

	adapter, ok := f.adapters[tag]
	if !ok {
		return nil, fmt.Errorf("fetcher: no adapter registered for %s: %w", tag, domain.ErrUnsupportedPlatform)
	}

	log := f.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("platform", string(tag)),
		slog.String("native_id", nativeID),
	)
	log.Info("fetching market snapshot",
		slog.String("interval", opts.HistoryInterval),
		slog.Bool("with_books", opts.WithBooks),
		slog.Bool("with_trades", opts.WithTrades),
	)

	// Facts first, synchronously: a market with no confirmed identity is not
	// reportable, and the optional fetches are pointless if it is missing.
	var facts domain.MarketFacts
	err = httpx.Retry(ctx, f.retry, func(ctx context.Context) error {
		var ferr error
		facts, ferr = adapter.FetchFacts(ctx, nativeID)
		return ferr
	})
	if err != nil {
		log.Error("facts fetch failed", slog.String("error", err.Error()))
		return nil, err
	}

	payload := &domain.MarketPayload{
		URL:       rawURL,
		Platform:  tag,
		NativeID:  nativeID,
		Facts:     facts,
		StateNow:  []domain.MarketStatePoint{},
		History:   []domain.HistorySeries{},
		Trades:    []domain.Trade{},
		FetchedAt: time.Now().Unix(),
	}

	// The remaining fetches are independent; run them concurrently, each
	// writing its own payload slot. Failures degrade to empty rather than
	// failing the call, so the goroutines only return an error on
	// cancellation.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		state, ok, err := bestEffort(gctx, f, log, "current_state", func(ctx context.Context) ([]domain.MarketStatePoint, error) {
			return adapter.FetchCurrentState(ctx, nativeID, opts.WithBooks)
		})
		if err != nil {
			return err
		}
		if ok {
			payload.StateNow = state
		}
		return nil
	})

	g.Go(func() error {
		series, ok, err := bestEffort(gctx, f, log, "history", func(ctx context.Context) ([]domain.HistorySeries, error) {
			return adapter.FetchHistory(ctx, nativeID, opts.HistoryInterval)
		})
		if err != nil {
			return err
		}
		if ok {
			for i := range series {
				series[i].Normalize()
			}
			payload.History = series
		}
		return nil
	})

	if opts.WithTrades {
		g.Go(func() error {
			trades, ok, err := bestEffort(gctx, f, log, "trades", func(ctx context.Context) ([]domain.Trade, error) {
				return adapter.FetchTrades(ctx, nativeID, opts.TradesLimit)
			})
			if err != nil {
				return err
			}
			if ok {
				payload.Trades = trades
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A cancelled caller gets Cancelled even if every sub-fetch happened to
	// settle first.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
	}

	if len(payload.StateNow) > 0 {
		log.Info("snapshot assembled",
			slog.Float64("mid", payload.StateNow[0].Mid),
			slog.Int("history_series", len(payload.History)),
			slog.Int("trades", len(payload.Trades)),
		)
	} else {
		log.Info("snapshot assembled without current state",
			slog.Int("history_series", len(payload.History)),
			slog.Int("trades", len(payload.Trades)),
		)
	}

	return payload, nil
}

// bestEffort runs one optional sub-fetch under the retry policy. On exhausted
// retries it logs and reports ok=false so the caller keeps the field's empty
// default; only cancellation propagates as an error.
func bestEffort[T any](ctx context.Context, f *Fetcher, log *slog.Logger, field string, fn func(context.Context) (T, error)) (T, bool, error) {
	var result T
	err := httpx.Retry(ctx, f.retry, func(ctx context.Context) error {
		var ferr error
		result, ferr = fn(ctx)
		return ferr
	})
	if err == nil {
		return result, true, nil
	}

	var zero T
	if errors.Is(err, domain.ErrCancelled) || errors.Is(err, context.Canceled) {
		return zero, false, fmt.Errorf("%s: %w", field, domain.ErrCancelled)
	}

	log.Warn("optional fetch degraded to empty",
		slog.String("field", field),
		slog.String("error", err.Error()),
	)
	return zero, false, nil
}
