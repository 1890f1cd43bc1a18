package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

const eventFixture = `[{
	"id": "9001",
	"title": "Fed decision in September?",
	"slug": "fed-decision-in-september",
	"resolutionSource": "https://www.federalreserve.gov",
	"active": "true",
	"closed": false,
	"liquidity": 50000,
	"volume": 1230000,
	"endDate": "2026-09-18T00:00:00Z",
	"markets": [{
		"id": "100",
		"question": "Will the Fed cut rates in September?",
		"conditionId": "0xabc123",
		"active": true,
		"closed": false,
		"outcomes": "[\"Yes\",\"No\"]",
		"outcomePrices": "[\"0.62\",\"0.38\"]",
		"clobTokenIds": "[\"tok-yes\",\"tok-no\"]",
		"volume": "1234567.89",
		"liquidity": "45678.12",
		"endDate": "2026-09-18T00:00:00Z"
	}]
}]`

// newTestServer serves all three Polymarket APIs from one mux; the adapter is
// pointed at it for every host.
func newTestServer(t *testing.T) (*Adapter, *atomic.Int32) {
	t.Helper()

	var gammaCalls atomic.Int32
	mux := http.NewServeMux()

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		gammaCalls.Add(1)
		if r.URL.Query().Get("slug") != "fed-decision-in-september" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, eventFixture)
	})

	mux.HandleFunc("/midpoint", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("token_id") {
		case "tok-yes":
			fmt.Fprint(w, `{"mid": "0.62"}`)
		case "tok-no":
			fmt.Fprint(w, `{"mid": "0.38"}`)
		default:
			http.Error(w, "unknown token", http.StatusNotFound)
		}
	})

	mux.HandleFunc("/book", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"market": "0xabc123",
			"asset_id": "tok-yes",
			"bids": [{"price": "0.60", "size": "100"}, {"price": "0.61", "size": "50"}],
			"asks": [{"price": "0.64", "size": "80"}, {"price": "0.63", "size": "40"}]
		}`)
	})

	mux.HandleFunc("/prices-history", func(w http.ResponseWriter, r *http.Request) {
		// Out of order with a duplicate timestamp; the adapter must repair it.
		fmt.Fprint(w, `{"history": [
			{"t": 1700000200, "p": 0.61},
			{"t": 1700000000, "p": 0.58},
			{"t": 1700000200, "p": 0.99},
			{"t": 1700000100, "p": 0.60}
		]}`)
	})

	mux.HandleFunc("/trades", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("market") != "0xabc123" {
			fmt.Fprint(w, `[]`)
			return
		}
		// Most recent first, as the Data API delivers.
		fmt.Fprint(w, `[
			{"conditionId": "0xabc123", "side": "BUY", "price": 0.63, "size": 10, "timestamp": 1700000300},
			{"conditionId": "0xabc123", "side": "SELL", "price": 0.61, "size": 25, "timestamp": 1700000100}
		]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewAdapter(srv.URL, srv.URL, srv.URL, srv.Client()), &gammaCalls
}

func TestFetchFacts(t *testing.T) {
	adapter, _ := newTestServer(t)

	facts, err := adapter.FetchFacts(context.Background(), "fed-decision-in-september")
	require.NoError(t, err)

	assert.Equal(t, "Will the Fed cut rates in September?", facts.Question)
	assert.InDelta(t, 1234567.89, facts.Volume, 0.001)
	assert.InDelta(t, 45678.12, facts.Liquidity, 0.001)
	assert.Equal(t, "https://www.federalreserve.gov", facts.ResolutionSource)
	assert.Equal(t, int64(1789689600), facts.CloseTime) // 2026-09-18T00:00:00Z
}

func TestFetchFactsUnknownSlug(t *testing.T) {
	adapter, _ := newTestServer(t)

	_, err := adapter.FetchFacts(context.Background(), "no-such-event")
	assert.ErrorIs(t, err, domain.ErrMarketNotFound)
}

func TestFetchCurrentStateMidpoints(t *testing.T) {
	adapter, _ := newTestServer(t)

	state, err := adapter.FetchCurrentState(context.Background(), "fed-decision-in-september", false)
	require.NoError(t, err)

	require.Len(t, state, 2)
	assert.Equal(t, "Yes", state[0].Outcome)
	assert.Equal(t, 0.62, state[0].Mid)
	assert.False(t, state[0].HasBook)
	assert.Equal(t, "No", state[1].Outcome)
	assert.Equal(t, 0.38, state[1].Mid)
}

func TestFetchCurrentStateWithBooks(t *testing.T) {
	adapter, _ := newTestServer(t)

	state, err := adapter.FetchCurrentState(context.Background(), "fed-decision-in-september", true)
	require.NoError(t, err)

	require.Len(t, state, 2)
	assert.True(t, state[0].HasBook)
	assert.Equal(t, 0.61, state[0].BestBid)
	assert.Equal(t, 0.63, state[0].BestAsk)
	assert.InDelta(t, 0.62, state[0].Mid, 1e-9)
}

func TestFetchHistorySortedAndDeduped(t *testing.T) {
	adapter, _ := newTestServer(t)

	series, err := adapter.FetchHistory(context.Background(), "fed-decision-in-september", "1d")
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.Equal(t, "Yes", series[0].Outcome)

	points := series[0].Points
	require.Len(t, points, 3)
	assert.Equal(t, []domain.HistoryPoint{
		{T: 1700000000, P: 0.58},
		{T: 1700000100, P: 0.60},
		{T: 1700000200, P: 0.61}, // first occurrence wins on duplicate timestamps
	}, points)
}

func TestFetchTradesMostRecentLast(t *testing.T) {
	adapter, _ := newTestServer(t)

	trades, err := adapter.FetchTrades(context.Background(), "fed-decision-in-september", 100)
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, int64(1700000100), trades[0].T)
	assert.Equal(t, int64(1700000300), trades[1].T)
	assert.Equal(t, 0.63, trades[1].Price)
	assert.Equal(t, float64(10), trades[1].Size)
}

func TestGammaResolvedOncePerSlug(t *testing.T) {
	adapter, gammaCalls := newTestServer(t)
	ctx := context.Background()

	_, err := adapter.FetchFacts(ctx, "fed-decision-in-september")
	require.NoError(t, err)
	_, err = adapter.FetchCurrentState(ctx, "fed-decision-in-september", false)
	require.NoError(t, err)
	_, err = adapter.FetchHistory(ctx, "fed-decision-in-september", "1h")
	require.NoError(t, err)

	assert.EqualValues(t, 1, gammaCalls.Load())
}

func TestFetchFactsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	adapter := NewAdapter(srv.URL, srv.URL, srv.URL, srv.Client())
	_, err := adapter.FetchFacts(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.True(t, domain.Retryable(err))
}

func TestOutcomeTokens(t *testing.T) {
	m := APIMarket{
		Outcomes:     `["Yes","No"]`,
		ClobTokenIDs: `["a","b"]`,
	}
	outcomes, tokens := m.OutcomeTokens()
	assert.Equal(t, []string{"Yes", "No"}, outcomes)
	assert.Equal(t, []string{"a", "b"}, tokens)

	// Missing labels default to Yes/No.
	m = APIMarket{ClobTokenIDs: `["a","b"]`}
	outcomes, tokens = m.OutcomeTokens()
	assert.Equal(t, []string{"Yes", "No"}, outcomes)
	assert.Len(t, tokens, 2)
}

func TestFlexBool(t *testing.T) {
	var m APIMarket
	require.NoError(t, json.Unmarshal([]byte(`{"active": "true"}`), &m))
	assert.True(t, bool(m.Active))
	require.NoError(t, json.Unmarshal([]byte(`{"active": false}`), &m))
	assert.False(t, bool(m.Active))
}
