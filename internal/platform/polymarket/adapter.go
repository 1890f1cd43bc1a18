// Package polymarket adapts the Polymarket Gamma, CLOB, and Data APIs to the
// normalized snapshot model. URLs of the form polymarket.com/event/<slug> are
// resolved through Gamma; prices and history come from the CLOB market-data
// endpoints, trades from the Data API.
package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

// marketRef is the per-slug lookup state shared by the sub-fetches: the
// outcome labels, CLOB token IDs, and condition ID of the event's primary
// market.
type marketRef struct {
	facts       domain.MarketFacts
	conditionID string
	outcomes    []string
	tokenIDs    []string
}

// Adapter implements the platform capability set for Polymarket.
type Adapter struct {
	gamma *GammaClient
	clob  *ClobClient
	data  *DataClient

	mu   sync.Mutex
	refs map[string]marketRef // slug -> resolved market
}

// NewAdapter creates a Polymarket adapter from the three API hosts. The
// shared httpClient is safe for concurrent reuse.
func NewAdapter(gammaHost, clobHost, dataHost string, httpClient *http.Client) *Adapter {
	return &Adapter{
		gamma: NewGammaClient(gammaHost, httpClient),
		clob:  NewClobClient(clobHost, httpClient),
		data:  NewDataClient(dataHost, httpClient),
		refs:  make(map[string]marketRef),
	}
}

// FetchFacts resolves the event slug through Gamma and returns the primary
// market's facts. The resolved token IDs are cached for the other
// sub-fetches, so the Gamma call happens once per slug.
func (a *Adapter) FetchFacts(ctx context.Context, slug string) (domain.MarketFacts, error) {
	ref, err := a.resolve(ctx, slug)
	if err != nil {
		return domain.MarketFacts{}, err
	}
	return ref.facts, nil
}

// FetchCurrentState returns one state point per outcome token, primary
// outcome first. Without books only the midpoint endpoint is hit; with books
// the full order book is fetched and reduced.
func (a *Adapter) FetchCurrentState(ctx context.Context, slug string, withBooks bool) ([]domain.MarketStatePoint, error) {
	ref, err := a.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	state := make([]domain.MarketStatePoint, 0, len(ref.tokenIDs))
	for i, tokenID := range ref.tokenIDs {
		if withBooks {
			book, err := a.clob.GetBook(ctx, tokenID)
			if err != nil {
				return nil, err
			}
			state = append(state, book.ToStatePoint(ref.outcomes[i]))
			continue
		}

		mid, err := a.clob.GetMidpoint(ctx, tokenID)
		if err != nil {
			return nil, err
		}
		state = append(state, domain.MarketStatePoint{Outcome: ref.outcomes[i], Mid: mid})
	}

	return state, nil
}

// FetchHistory returns one normalized price series per outcome token.
func (a *Adapter) FetchHistory(ctx context.Context, slug, interval string) ([]domain.HistorySeries, error) {
	ref, err := a.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	series := make([]domain.HistorySeries, 0, len(ref.tokenIDs))
	for i, tokenID := range ref.tokenIDs {
		points, err := a.clob.GetPricesHistory(ctx, tokenID, interval)
		if err != nil {
			return nil, err
		}
		s := domain.HistorySeries{Outcome: ref.outcomes[i], Points: make([]domain.HistoryPoint, 0, len(points))}
		for _, p := range points {
			s.Points = append(s.Points, domain.HistoryPoint{T: p.T, P: domain.ClampProbability(p.P)})
		}
		s.Normalize()
		series = append(series, s)
	}

	return series, nil
}

// FetchTrades returns up to limit recent trades, most recent last.
func (a *Adapter) FetchTrades(ctx context.Context, slug string, limit int) ([]domain.Trade, error) {
	ref, err := a.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	if ref.conditionID == "" {
		return []domain.Trade{}, nil
	}

	apiTrades, err := a.data.GetTrades(ctx, ref.conditionID, limit)
	if err != nil {
		return nil, err
	}

	// Data API orders most-recent-first; flip to most-recent-last.
	trades := make([]domain.Trade, 0, len(apiTrades))
	for i := len(apiTrades) - 1; i >= 0; i-- {
		trades = append(trades, apiTrades[i].ToDomainTrade())
	}

	return trades, nil
}

// resolve fetches (or reuses) the Gamma event for slug and picks its primary
// market: the first open market, or the first market when all are closed.
func (a *Adapter) resolve(ctx context.Context, slug string) (marketRef, error) {
	a.mu.Lock()
	ref, ok := a.refs[slug]
	a.mu.Unlock()
	if ok {
		return ref, nil
	}

	event, err := a.gamma.GetEventBySlug(ctx, slug)
	if err != nil {
		return marketRef{}, err
	}
	if len(event.Markets) == 0 {
		return marketRef{}, fmt.Errorf("polymarket: event %s has no markets: %w", slug, domain.ErrMarketNotFound)
	}

	market := &event.Markets[0]
	for i := range event.Markets {
		if bool(event.Markets[i].Active) && !event.Markets[i].Closed {
			market = &event.Markets[i]
			break
		}
	}

	outcomes, tokenIDs := market.OutcomeTokens()
	ref = marketRef{
		facts:       market.ToFacts(&event),
		conditionID: market.ConditionID,
		outcomes:    outcomes,
		tokenIDs:    tokenIDs,
	}

	a.mu.Lock()
	a.refs[slug] = ref
	a.mu.Unlock()

	return ref, nil
}
