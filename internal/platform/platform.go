// Package platform defines the capability interface every market platform
// adapter implements. Adding a platform means adding one adapter package and
// registering it; the fetch orchestrator never branches on platform identity.
package platform

import (
	"context"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

// Adapter is the capability set one platform exposes. Implementations map
// their platform's native REST responses into the normalized domain types:
// probabilities as fractions in [0,1] and timestamps as epoch-seconds,
// whatever the native representation.
type Adapter interface {
	// FetchFacts returns the market identity and resolution metadata.
	// Failure here is fatal for the whole request: domain.ErrMarketNotFound
	// when the platform confirms the identifier does not exist,
	// domain.ErrUpstream for transient conditions.
	FetchFacts(ctx context.Context, nativeID string) (domain.MarketFacts, error)

	// FetchCurrentState returns the current price state per outcome token,
	// primary outcome first. With withBooks set, best bid/ask are populated
	// from order-book data.
	FetchCurrentState(ctx context.Context, nativeID string, withBooks bool) ([]domain.MarketStatePoint, error)

	// FetchHistory returns one price series per outcome token at the
	// requested granularity ("1h", "1d", ...). Unsupported intervals fall
	// back to the platform's nearest supported granularity.
	FetchHistory(ctx context.Context, nativeID, interval string) ([]domain.HistorySeries, error)

	// FetchTrades returns up to limit recent trades, most recent last.
	FetchTrades(ctx context.Context, nativeID string, limit int) ([]domain.Trade, error)
}

// Registry maps platform tags to their adapters.
type Registry map[domain.Platform]Adapter
