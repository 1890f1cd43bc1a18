// Package domain defines the normalized market snapshot model shared by the
// resolver, the platform adapters, the fetch orchestrator, and the renderers.
package domain

import "sort"

// Platform identifies a supported prediction-market service.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
)

// MarketFacts holds the identity and resolution metadata of a market. Question
// is the only required field; numeric fields default to 0 and CloseTime is 0
// when the platform did not report one.
type MarketFacts struct {
	Question         string  `json:"question"`
	Volume           float64 `json:"volume"`
	Liquidity        float64 `json:"liquidity"`
	CloseTime        int64   `json:"close_time,omitempty"` // epoch seconds
	ResolutionSource string  `json:"resolution_source,omitempty"`
}

// MarketStatePoint is the current price state of one outcome token. Mid is a
// fraction in [0,1] read as implied probability. BestBid/BestAsk are only
// meaningful when HasBook is set (order-book data was requested and present).
type MarketStatePoint struct {
	Outcome string  `json:"outcome"`
	Mid     float64 `json:"mid"`
	BestBid float64 `json:"best_bid,omitempty"`
	BestAsk float64 `json:"best_ask,omitempty"`
	HasBook bool    `json:"has_book,omitempty"`
}

// HistoryPoint is one (timestamp, price) sample of a price series.
type HistoryPoint struct {
	T int64   `json:"t"` // epoch seconds
	P float64 `json:"p"` // fraction in [0,1]
}

// HistorySeries is the price history of a single outcome token.
type HistorySeries struct {
	Outcome string         `json:"outcome"`
	Points  []HistoryPoint `json:"points"`
}

// Normalize sorts the series ascending by timestamp and drops duplicate
// timestamps, keeping the first sample seen for each. Upstream APIs do not
// guarantee either property.
func (s *HistorySeries) Normalize() {
	if len(s.Points) < 2 {
		return
	}
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].T < s.Points[j].T
	})
	out := s.Points[:1]
	for _, p := range s.Points[1:] {
		if p.T != out[len(out)-1].T {
			out = append(out, p)
		}
	}
	s.Points = out
}

// Trade is a single executed trade, price as a fraction in [0,1].
type Trade struct {
	T     int64   `json:"t"` // epoch seconds
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// MarketPayload is the full normalized snapshot of one market. It is built
// fresh per fetch and never mutated afterwards. StateNow, History, and Trades
// are always non-nil on success; a degraded sub-fetch leaves an empty slice,
// never a missing field.
type MarketPayload struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
	NativeID string   `json:"native_id"`

	Facts    MarketFacts        `json:"market_facts"`
	StateNow []MarketStatePoint `json:"market_state_now"`
	History  []HistorySeries    `json:"history"`
	Trades   []Trade            `json:"trades"`

	FetchedAt int64 `json:"fetched_at"` // epoch seconds
}

// PriorProbability returns the mid price of the primary outcome, the value
// downstream consumers use as their prior. When no current state is available
// it returns 0.5; absence of a price is a default, never an error.
func (p *MarketPayload) PriorProbability() float64 {
	if len(p.StateNow) == 0 || p.StateNow[0].Mid <= 0 {
		return 0.5
	}
	return p.StateNow[0].Mid
}

// ClampProbability coerces a platform price into [0,1]. Adapters call this
// after unit conversion so scale bugs can never leak an out-of-range prior.
func ClampProbability(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
