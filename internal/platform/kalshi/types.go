package kalshi

import (
	"time"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

// --------------------------------------------------------------------------
// Kalshi API DTOs. Prices arrive in cents (1-99).
// --------------------------------------------------------------------------

// KalshiMarket represents a market as returned by the Kalshi REST API.
type KalshiMarket struct {
	Ticker          string  `json:"ticker"`
	EventTicker     string  `json:"event_ticker"`
	Title           string  `json:"title"`
	Subtitle        string  `json:"subtitle"`
	Status          string  `json:"status"` // "open", "closed", "settled"
	YesBid          float64 `json:"yes_bid"`
	YesAsk          float64 `json:"yes_ask"`
	NoBid           float64 `json:"no_bid"`
	NoAsk           float64 `json:"no_ask"`
	LastPrice       float64 `json:"last_price"`
	Volume          int64   `json:"volume"`
	Volume24H       int64   `json:"volume_24h"`
	Liquidity       int64   `json:"liquidity"` // in cents
	OpenInterest    int64   `json:"open_interest"`
	RulesPrimary    string  `json:"rules_primary"`
	RulesSecondary  string  `json:"rules_secondary"`
	Category        string  `json:"category"`
	Result          string  `json:"result"` // "yes", "no", "" (unsettled)
	CanCloseEarly   bool    `json:"can_close_early"`
	OpenTime        string  `json:"open_time"`
	CloseTime       string  `json:"close_time"`
	ExpirationTime  string  `json:"expiration_time"`
	SettlementTimer int64   `json:"settlement_timer_seconds"`
}

// ToFacts converts a Kalshi market into normalized market facts. Liquidity is
// reported by the API in cents and converted to currency units; close time is
// RFC3339 and converted to epoch-seconds.
func (m *KalshiMarket) ToFacts() domain.MarketFacts {
	facts := domain.MarketFacts{
		Question:         m.Title,
		Volume:           float64(m.Volume),
		Liquidity:        float64(m.Liquidity) / 100,
		ResolutionSource: m.RulesPrimary,
	}
	if facts.Question == "" {
		facts.Question = m.Ticker
	}
	for _, raw := range []string{m.CloseTime, m.ExpirationTime} {
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

// YesMid returns the implied probability of the Yes outcome as a fraction in
// [0,1], preferring the bid/ask midpoint and falling back to last price.
func (m *KalshiMarket) YesMid() float64 {
	if m.YesBid > 0 && m.YesAsk > 0 {
		return domain.ClampProbability((m.YesBid + m.YesAsk) / 2 / 100)
	}
	return domain.ClampProbability(m.LastPrice / 100)
}

// KalshiOrderbook represents the orderbook for a Kalshi market.
type KalshiOrderbook struct {
	Ticker  string             `json:"ticker"`
	YesBids []KalshiPriceLevel `json:"yes"`
	NoBids  []KalshiPriceLevel `json:"no"`
}

// KalshiPriceLevel is a single price+quantity entry in the Kalshi orderbook.
type KalshiPriceLevel struct {
	Price    int64 `json:"price"`    // in cents (1-99)
	Quantity int64 `json:"quantity"` // number of contracts
}

// BestYesBid returns the highest resting Yes bid as a fraction, 0 when the
// side is empty.
func (b *KalshiOrderbook) BestYesBid() float64 {
	var best int64
	for _, lvl := range b.YesBids {
		if lvl.Price > best {
			best = lvl.Price
		}
	}
	return float64(best) / 100
}

// BestYesAsk returns the lowest Yes ask as a fraction, derived from the No
// side: a No bid at price p is a Yes ask at 100-p. Returns 0 when empty.
func (b *KalshiOrderbook) BestYesAsk() float64 {
	var bestNo int64
	for _, lvl := range b.NoBids {
		if lvl.Price > bestNo {
			bestNo = lvl.Price
		}
	}
	if bestNo == 0 {
		return 0
	}
	return float64(100-bestNo) / 100
}

// KalshiCandle is one candlestick of a market's price history.
type KalshiCandle struct {
	EndPeriodTS int64             `json:"end_period_ts"` // epoch seconds
	Price       KalshiCandlePrice `json:"price"`
	YesBid      KalshiCandlePrice `json:"yes_bid"`
	YesAsk      KalshiCandlePrice `json:"yes_ask"`
	Volume      int64             `json:"volume"`
}

// KalshiCandlePrice holds the OHLC values of one candle side, in cents.
type KalshiCandlePrice struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// ClosePrice returns the candle's closing Yes price as a fraction in [0,1],
// falling back to the bid/ask close midpoint when no trade printed in the
// period.
func (c *KalshiCandle) ClosePrice() float64 {
	if c.Price.Close > 0 {
		return domain.ClampProbability(c.Price.Close / 100)
	}
	if c.YesBid.Close > 0 && c.YesAsk.Close > 0 {
		return domain.ClampProbability((c.YesBid.Close + c.YesAsk.Close) / 2 / 100)
	}
	return 0
}

// KalshiTrade is a single public trade print.
type KalshiTrade struct {
	TradeID     string `json:"trade_id"`
	Ticker      string `json:"ticker"`
	TakerSide   string `json:"taker_side"` // "yes" or "no"
	Count       int64  `json:"count"`
	YesPrice    int64  `json:"yes_price"` // in cents
	NoPrice     int64  `json:"no_price"`
	CreatedTime string `json:"created_time"` // RFC3339
}

// ToDomainTrade converts a KalshiTrade to a normalized domain.Trade.
func (t *KalshiTrade) ToDomainTrade() domain.Trade {
	tr := domain.Trade{
		Price: domain.ClampProbability(float64(t.YesPrice) / 100),
		Size:  float64(t.Count),
	}
	if ts, err := time.Parse(time.RFC3339, t.CreatedTime); err == nil {
		tr.T = ts.Unix()
	}
	return tr
}

// KalshiErrorResponse represents a Kalshi API error response.
type KalshiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
