package domain

import (
	"context"
	"errors"
)

var (
	ErrMalformedURL        = errors.New("malformed url")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrMarketNotFound      = errors.New("market not found")
	ErrUpstream            = errors.New("upstream error")
	ErrCancelled           = errors.New("cancelled")
)

// Retryable reports whether err is a transient upstream condition worth
// retrying. Resolver failures and confirmed not-found responses are terminal.
func Retryable(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// Fatal reports whether err should abort the whole fetch rather than degrade
// a single field.
func Fatal(err error) bool {
	return errors.Is(err, ErrMalformedURL) ||
		errors.Is(err, ErrUnsupportedPlatform) ||
		errors.Is(err, ErrMarketNotFound) ||
		errors.Is(err, ErrCancelled)
}

// UserMessage maps an error to a short actionable message for display. The
// front-end renders this directly and never needs the internal taxonomy.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedURL):
		return "That doesn't look like a valid URL."
	case errors.Is(err, ErrUnsupportedPlatform):
		return "Unsupported site: only Polymarket and Kalshi market URLs are recognized."
	case errors.Is(err, ErrMarketNotFound):
		return "Market not found: the platform has no market with that identifier."
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return "Network issue: the platform API could not be reached. Try again shortly."
	}
}
