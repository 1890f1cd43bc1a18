// Package kalshi adapts the Kalshi trade API to the normalized snapshot
// model. URLs of the form kalshi.com/markets/<ticker> map directly onto the
// market endpoints; prices are converted from cents to fractions.
package kalshi

import (
	"context"
	"strings"
	"time"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

// historyPeriods lists the candle periods Kalshi supports, in minutes.
// Unsupported request intervals fall back to the nearest of these.
var historyPeriods = map[string]int{
	"1m": 1,
	"1h": 60,
	"1d": 1440,
}

// Adapter implements the platform capability set for Kalshi.
type Adapter struct {
	client *Client
	// now is swapped in tests to pin the candlestick window.
	now func() time.Time
}

// NewAdapter creates a Kalshi adapter around an existing client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client, now: time.Now}
}

// FetchFacts returns the market's title, trading metrics, close time, and
// primary resolution rules.
func (a *Adapter) FetchFacts(ctx context.Context, ticker string) (domain.MarketFacts, error) {
	market, err := a.client.GetMarket(ctx, ticker)
	if err != nil {
		return domain.MarketFacts{}, err
	}
	return market.ToFacts(), nil
}

// FetchCurrentState returns the Yes and No state points, Yes first. Kalshi
// quotes both sides of a binary market, so both points come from one market
// response; with books the resting orderbook refines best bid/ask.
func (a *Adapter) FetchCurrentState(ctx context.Context, ticker string, withBooks bool) ([]domain.MarketStatePoint, error) {
	market, err := a.client.GetMarket(ctx, ticker)
	if err != nil {
		return nil, err
	}

	yes := domain.MarketStatePoint{
		Outcome: "Yes",
		Mid:     market.YesMid(),
		BestBid: domain.ClampProbability(market.YesBid / 100),
		BestAsk: domain.ClampProbability(market.YesAsk / 100),
	}
	no := domain.MarketStatePoint{
		Outcome: "No",
		Mid:     domain.ClampProbability(1 - yes.Mid),
		BestBid: domain.ClampProbability(market.NoBid / 100),
		BestAsk: domain.ClampProbability(market.NoAsk / 100),
	}

	if withBooks {
		book, err := a.client.GetOrderbook(ctx, ticker)
		if err != nil {
			return nil, err
		}
		if bid := book.BestYesBid(); bid > 0 {
			yes.BestBid = bid
		}
		if ask := book.BestYesAsk(); ask > 0 {
			yes.BestAsk = ask
		}
		if yes.BestBid > 0 && yes.BestAsk > 0 {
			yes.Mid = domain.ClampProbability((yes.BestBid + yes.BestAsk) / 2)
			no.Mid = domain.ClampProbability(1 - yes.Mid)
		}
		yes.HasBook = true
		no.HasBook = true
	}

	return []domain.MarketStatePoint{yes, no}, nil
}

// FetchHistory returns the Yes price series built from candlestick closes.
// The window covers the last year for daily candles and shrinks with the
// period so the response stays within Kalshi's per-request candle cap.
func (a *Adapter) FetchHistory(ctx context.Context, ticker, interval string) ([]domain.HistorySeries, error) {
	period, ok := historyPeriods[interval]
	if !ok {
		period = nearestPeriod(interval)
	}

	end := a.now().Unix()
	start := end - int64(period)*60*500 // ~500 candles back

	candles, err := a.client.GetCandlesticks(ctx, seriesTicker(ticker), ticker, start, end, period)
	if err != nil {
		return nil, err
	}

	series := domain.HistorySeries{Outcome: "Yes", Points: make([]domain.HistoryPoint, 0, len(candles))}
	for i := range candles {
		p := candles[i].ClosePrice()
		if p == 0 {
			continue
		}
		series.Points = append(series.Points, domain.HistoryPoint{T: candles[i].EndPeriodTS, P: p})
	}
	series.Normalize()

	return []domain.HistorySeries{series}, nil
}

// FetchTrades returns up to limit recent trades, most recent last.
func (a *Adapter) FetchTrades(ctx context.Context, ticker string, limit int) ([]domain.Trade, error) {
	apiTrades, err := a.client.GetTrades(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}

	// Kalshi orders most-recent-first; flip to most-recent-last.
	trades := make([]domain.Trade, 0, len(apiTrades))
	for i := len(apiTrades) - 1; i >= 0; i-- {
		trades = append(trades, apiTrades[i].ToDomainTrade())
	}

	return trades, nil
}

// seriesTicker derives the series ticker from a market ticker: the segment
// before the first '-', e.g. "KXBTC-25DEC31-B" -> "KXBTC".
func seriesTicker(ticker string) string {
	if i := strings.IndexByte(ticker, '-'); i > 0 {
		return ticker[:i]
	}
	return ticker
}

// nearestPeriod picks the supported candle period closest in spirit to an
// unknown interval string: sub-hour requests get minute candles, sub-day
// requests hourly, everything else daily.
func nearestPeriod(interval string) int {
	switch {
	case strings.HasSuffix(interval, "m"):
		return 1
	case strings.HasSuffix(interval, "h"):
		return 60
	default:
		return 1440
	}
}
