// Package httpx holds the HTTP plumbing shared by the platform adapters: a
// pooled client constructor and a bounded exponential-backoff retry helper.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

// NewClient returns an *http.Client with the given per-request timeout.
// The client keeps a connection pool and carries no request-specific state,
// so one instance is shared across adapters and concurrent calls.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// RetryPolicy bounds the retry loop for a single sub-fetch.
type RetryPolicy struct {
	// Attempts is the total number of tries including the first.
	Attempts int
	// BaseDelay is the wait before the second attempt; it doubles each retry.
	BaseDelay time.Duration
}

// DefaultRetryPolicy is 3 attempts with exponential backoff from 200ms,
// chosen conservatively against platform rate limits.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, BaseDelay: 200 * time.Millisecond}

// Retry runs fn up to p.Attempts times. Only transient upstream errors
// (domain.Retryable) are retried; anything else returns immediately. When ctx
// is cancelled between attempts or fn failed because the caller withdrew, it
// returns domain.ErrCancelled — a per-attempt timeout stays an upstream error
// so the next attempt still runs.
func Retry(ctx context.Context, p RetryPolicy, fn func(context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	delay := p.BaseDelay

	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if cancelled(ctx, err) {
			return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
		}
		if !domain.Retryable(err) || attempt >= p.Attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// cancelled reports whether err means the caller withdrew the request, as
// opposed to an individual attempt timing out.
func cancelled(ctx context.Context, err error) bool {
	if ctx.Err() == context.Canceled {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrCancelled)
}

// CheckStatus maps a non-2xx response to the domain error taxonomy: 404 is a
// confirmed missing market, everything else is a retryable upstream failure.
func CheckStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	if statusCode == http.StatusNotFound {
		return fmt.Errorf("%w: HTTP 404: %s", domain.ErrMarketNotFound, truncate(body, 200))
	}
	return fmt.Errorf("%w: HTTP %d: %s", domain.ErrUpstream, statusCode, truncate(body, 200))
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
