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

// DataClient is the REST client for the Polymarket Data API, which serves
// historical trade fills.
type DataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataClient creates a new Data API client.
//
// baseURL is the Data API root, e.g. "https://data-api.polymarket.com".
func NewDataClient(baseURL string, httpClient *http.Client) *DataClient {
	return &DataClient{baseURL: baseURL, httpClient: httpClient}
}

// GetTrades returns up to limit recent trades for a market condition ID. The
// API delivers most-recent-first.
func (d *DataClient) GetTrades(ctx context.Context, conditionID string, limit int) ([]APITrade, error) {
	params := url.Values{}
	params.Set("market", conditionID)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/trades?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: %w: http request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: %w: read response: %v", domain.ErrUpstream, err)
	}
	if err := httpx.CheckStatus(resp.StatusCode, body); err != nil {
		return nil, fmt.Errorf("polymarket/data: get trades: %w", err)
	}

	var trades []APITrade
	if err := json.Unmarshal(body, &trades); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode trades: %w: %v", domain.ErrUpstream, err)
	}

	return trades, nil
}
