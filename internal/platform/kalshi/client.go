package kalshi

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wolonglabs/marketsnap/internal/domain"
	"github.com/wolonglabs/marketsnap/internal/httpx"
)

// Client is the REST client for the Kalshi exchange API. The market-data
// endpoints used here are public; when an API key and RSA private key are
// configured, requests are signed, which raises the rate limits Kalshi
// applies to anonymous traffic.
type Client struct {
	baseURL    string
	apiKeyID   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
}

// NewClient creates a new Kalshi REST client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
// apiKeyID may be empty for unauthenticated access.
func NewClient(baseURL, apiKeyID string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKeyID:   apiKeyID,
		httpClient: httpClient,
	}
}

// SetRSAPrivateKey loads an RSA private key from PEM-encoded bytes and
// configures the client for RSA-signed authentication.
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS1 as fallback.
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// GetMarket returns a single market by its ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (KalshiMarket, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(ticker))

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return KalshiMarket{}, fmt.Errorf("kalshi: get market %s: %w", ticker, err)
	}

	var resp struct {
		Market KalshiMarket `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return KalshiMarket{}, fmt.Errorf("kalshi: decode market: %w: %v", domain.ErrUpstream, err)
	}
	if resp.Market.Ticker == "" {
		return KalshiMarket{}, fmt.Errorf("kalshi: %w: ticker=%s", domain.ErrMarketNotFound, ticker)
	}

	return resp.Market, nil
}

// GetOrderbook returns the current orderbook for the given market ticker.
func (c *Client) GetOrderbook(ctx context.Context, ticker string) (KalshiOrderbook, error) {
	path := fmt.Sprintf("/markets/%s/orderbook", url.PathEscape(ticker))

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return KalshiOrderbook{}, fmt.Errorf("kalshi: get orderbook %s: %w", ticker, err)
	}

	var resp struct {
		Orderbook KalshiOrderbook `json:"orderbook"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return KalshiOrderbook{}, fmt.Errorf("kalshi: decode orderbook: %w: %v", domain.ErrUpstream, err)
	}

	resp.Orderbook.Ticker = ticker
	return resp.Orderbook, nil
}

// GetCandlesticks returns the market's price history at the given period
// (minutes per candle), covering [startTS, endTS] epoch-seconds. seriesTicker
// is the series the market belongs to.
func (c *Client) GetCandlesticks(ctx context.Context, seriesTicker, ticker string, startTS, endTS int64, periodMinutes int) ([]KalshiCandle, error) {
	params := url.Values{}
	params.Set("start_ts", strconv.FormatInt(startTS, 10))
	params.Set("end_ts", strconv.FormatInt(endTS, 10))
	params.Set("period_interval", strconv.Itoa(periodMinutes))

	path := fmt.Sprintf("/series/%s/markets/%s/candlesticks?%s",
		url.PathEscape(seriesTicker), url.PathEscape(ticker), params.Encode())

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, fmt.Errorf("kalshi: get candlesticks %s: %w", ticker, err)
	}

	var resp struct {
		Candlesticks []KalshiCandle `json:"candlesticks"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kalshi: decode candlesticks: %w: %v", domain.ErrUpstream, err)
	}

	return resp.Candlesticks, nil
}

// GetTrades returns up to limit recent public trades for a market ticker.
func (c *Client) GetTrades(ctx context.Context, ticker string, limit int) ([]KalshiTrade, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doRequest(ctx, http.MethodGet, "/markets/trades?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("kalshi: get trades %s: %w", ticker, err)
	}

	var resp struct {
		Trades []KalshiTrade `json:"trades"`
		Cursor string        `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kalshi: decode trades: %w: %v", domain.ErrUpstream, err)
	}

	return resp.Trades, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, optionally signs, sends, and reads an HTTP request
// against the Kalshi API.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.privateKey != nil {
		if err := c.signRequest(req, method, path); err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// signRequest adds RSA authentication headers to the HTTP request. Kalshi
// uses RSA-PSS-SHA256 signatures over the timestamp + method + path message
// string. The query string is excluded from the signed path.
func (c *Client) signRequest(req *http.Request, method, path string) error {
	if i := bytes.IndexByte([]byte(path), '?'); i >= 0 {
		path = path[:i]
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := ts + method + path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)

	return nil
}

// checkStatus maps non-2xx HTTP status codes to domain errors, attaching the
// Kalshi error code and message when present.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr KalshiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	if statusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s (%s)", domain.ErrMarketNotFound, apiErr.Message, apiErr.Code)
	}
	if apiErr.Message != "" {
		return fmt.Errorf("%w: HTTP %d: %s (%s)", domain.ErrUpstream, statusCode, apiErr.Message, apiErr.Code)
	}
	return httpx.CheckStatus(statusCode, body)
}
