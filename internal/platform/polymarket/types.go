package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Polymarket Gamma API. An
// event groups one or more related markets and is what a /event/<slug> URL
// points at.
type APIEvent struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	Description      string      `json:"description"`
	ResolutionSource string      `json:"resolutionSource"`
	Active           flexBool    `json:"active"`
	Closed           bool        `json:"closed"`
	Liquidity        float64     `json:"liquidity"`
	Volume           float64     `json:"volume"`
	EndDate          string      `json:"endDate"`
	Markets          []APIMarket `json:"markets"`
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Several list-valued fields arrive JSON-encoded inside strings.
type APIMarket struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	ConditionID      string   `json:"conditionId"`
	Slug             string   `json:"slug"`
	Active           flexBool `json:"active"`
	Closed           bool     `json:"closed"`
	Description      string   `json:"description"`
	ResolutionSource string   `json:"resolutionSource"`
	Outcomes         string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices    string   `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.62\",\"0.38\"]"
	ClobTokenIDs     string   `json:"clobTokenIds"`  // JSON-encoded: e.g. "[\"123\",\"456\"]"
	Volume           string   `json:"volume"`
	Liquidity        string   `json:"liquidity"`
	EndDate          string   `json:"endDate"`
	EndDateISO       string   `json:"endDateIso"`
}

// OutcomeTokens returns the parallel (outcome label, CLOB token ID) lists
// decoded from their string-encoded JSON fields. Labels default to Yes/No
// when the market omits them.
func (m *APIMarket) OutcomeTokens() (outcomes, tokenIDs []string) {
	_ = json.Unmarshal([]byte(m.Outcomes), &outcomes)
	_ = json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs)
	if len(outcomes) == 0 && len(tokenIDs) > 0 {
		outcomes = make([]string, len(tokenIDs))
		for i := range outcomes {
			if i == 0 {
				outcomes[i] = "Yes"
			} else {
				outcomes[i] = "No"
			}
		}
	}
	for len(outcomes) < len(tokenIDs) {
		outcomes = append(outcomes, "")
	}
	return outcomes, tokenIDs
}

// ToFacts converts a Gamma market (with its enclosing event for fallback
// fields) into normalized market facts.
func (m *APIMarket) ToFacts(ev *APIEvent) domain.MarketFacts {
	facts := domain.MarketFacts{
		Question:         m.Question,
		ResolutionSource: m.ResolutionSource,
	}
	if facts.Question == "" {
		facts.Question = ev.Title
	}
	if facts.ResolutionSource == "" {
		facts.ResolutionSource = ev.ResolutionSource
	}

	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		facts.Volume = v
	} else {
		facts.Volume = ev.Volume
	}
	if l, err := strconv.ParseFloat(m.Liquidity, 64); err == nil {
		facts.Liquidity = l
	} else {
		facts.Liquidity = ev.Liquidity
	}

	for _, raw := range []string{m.EndDate, m.EndDateISO, ev.EndDate} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			facts.CloseTime = t.Unix()
			break
		}
	}

	return facts
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// MidpointResponse is the CLOB /midpoint response; the price arrives as a
// decimal string already in [0,1].
type MidpointResponse struct {
	Mid string `json:"mid"`
}

// BookLevel is a single bid/ask level in the CLOB /book response.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BookResponse is the CLOB /book response for one outcome token.
type BookResponse struct {
	Market  string      `json:"market"`
	AssetID string      `json:"asset_id"`
	Bids    []BookLevel `json:"bids"`
	Asks    []BookLevel `json:"asks"`
}

// ToStatePoint reduces a full order book to best bid, best ask, and mid.
func (b *BookResponse) ToStatePoint(outcome string) domain.MarketStatePoint {
	pt := domain.MarketStatePoint{Outcome: outcome, HasBook: true}
	for _, lvl := range b.Bids {
		if p, err := strconv.ParseFloat(lvl.Price, 64); err == nil && p > pt.BestBid {
			pt.BestBid = p
		}
	}
	for _, lvl := range b.Asks {
		if p, err := strconv.ParseFloat(lvl.Price, 64); err == nil && (pt.BestAsk == 0 || p < pt.BestAsk) {
			pt.BestAsk = p
		}
	}
	if pt.BestBid > 0 && pt.BestAsk > 0 {
		pt.Mid = domain.ClampProbability((pt.BestBid + pt.BestAsk) / 2)
	}
	return pt
}

// PriceHistoryResponse is the CLOB /prices-history response.
type PriceHistoryResponse struct {
	History []PriceHistoryPoint `json:"history"`
}

// PriceHistoryPoint is one sample of the CLOB price history: epoch-seconds
// timestamp and price fraction.
type PriceHistoryPoint struct {
	T int64   `json:"t"`
	P float64 `json:"p"`
}

// --------------------------------------------------------------------------
// Data API DTOs
// --------------------------------------------------------------------------

// APITrade is a single trade as returned by the Polymarket Data API.
type APITrade struct {
	ConditionID string  `json:"conditionId"`
	Side        string  `json:"side"`
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`
	Timestamp   int64   `json:"timestamp"` // epoch seconds
}

// ToDomainTrade converts an APITrade to a normalized domain.Trade.
func (t *APITrade) ToDomainTrade() domain.Trade {
	return domain.Trade{
		T:     t.Timestamp,
		Price: domain.ClampProbability(t.Price),
		Size:  t.Size,
	}
}
