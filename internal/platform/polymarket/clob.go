package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wolonglabs/marketsnap/internal/domain"
	"github.com/wolonglabs/marketsnap/internal/httpx"
)

// historyFidelity maps a requested granularity to the CLOB prices-history
// fidelity parameter (sample spacing in minutes). Unknown intervals fall back
// to daily rather than failing.
var historyFidelity = map[string]int{
	"1m": 1,
	"1h": 60,
	"6h": 360,
	"1d": 1440,
	"1w": 10080,
}

// ClobClient is the REST client for the public, read-only market-data
// endpoints of the Polymarket CLOB API.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a new CLOB market-data client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string, httpClient *http.Client) *ClobClient {
	return &ClobClient{baseURL: baseURL, httpClient: httpClient}
}

// GetMidpoint returns the current mid price for one outcome token as a
// fraction in [0,1].
func (c *ClobClient) GetMidpoint(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, "/midpoint?"+params.Encode())
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get midpoint: %w", err)
	}

	var resp MidpointResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode midpoint: %w: %v", domain.ErrUpstream, err)
	}
	mid, err := strconv.ParseFloat(resp.Mid, 64)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: parse midpoint %q: %w: %v", resp.Mid, domain.ErrUpstream, err)
	}

	return domain.ClampProbability(mid), nil
}

// GetBook returns the current order book for one outcome token.
func (c *ClobClient) GetBook(ctx context.Context, tokenID string) (BookResponse, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, "/book?"+params.Encode())
	if err != nil {
		return BookResponse{}, fmt.Errorf("polymarket/clob: get book: %w", err)
	}

	var resp BookResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return BookResponse{}, fmt.Errorf("polymarket/clob: decode book: %w: %v", domain.ErrUpstream, err)
	}

	return resp, nil
}

// GetPricesHistory returns the historical price series for one outcome token
// at the requested granularity.
func (c *ClobClient) GetPricesHistory(ctx context.Context, tokenID, interval string) ([]PriceHistoryPoint, error) {
	fidelity, ok := historyFidelity[interval]
	if !ok {
		fidelity = historyFidelity["1d"]
	}

	params := url.Values{}
	params.Set("market", tokenID)
	params.Set("interval", "max")
	params.Set("fidelity", strconv.Itoa(fidelity))

	body, err := c.doGet(ctx, "/prices-history?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get prices history: %w", err)
	}

	var resp PriceHistoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode prices history: %w: %v", domain.ErrUpstream, err)
	}

	return resp.History, nil
}

// doGet sends an unauthenticated GET request to the CLOB API.
func (c *ClobClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}

	if err := httpx.CheckStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
