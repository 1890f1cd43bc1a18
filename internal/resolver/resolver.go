// Package resolver maps a user-supplied market URL to the platform that hosts
// it and the platform-native market identifier embedded in the path.
package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

// Resolve inspects raw and returns the owning platform plus the native market
// identifier (Polymarket event slug or Kalshi market ticker). It is
// side-effect free. Failures are terminal: domain.ErrMalformedURL when raw is
// not an absolute http(s) URL, domain.ErrUnsupportedPlatform when the URL
// belongs to no known platform.
func Resolve(raw string) (domain.Platform, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("resolver: parse %q: %w", raw, domain.ErrMalformedURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("resolver: %q is not an absolute http(s) url: %w", raw, domain.ErrMalformedURL)
	}
	if u.Hostname() == "" {
		return "", "", fmt.Errorf("resolver: %q has no host: %w", raw, domain.ErrMalformedURL)
	}

	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	segs := pathSegments(u.Path)

	switch {
	case host == "polymarket.com" || strings.HasSuffix(host, ".polymarket.com"):
		// polymarket.com/event/<slug>[/<market-slug>]
		if len(segs) >= 2 && segs[0] == "event" && segs[1] != "" {
			return domain.PlatformPolymarket, segs[1], nil
		}
	case host == "kalshi.com" || strings.HasSuffix(host, ".kalshi.com"):
		// kalshi.com/markets/<ticker>[/...]
		if len(segs) >= 2 && segs[0] == "markets" && segs[1] != "" {
			return domain.PlatformKalshi, segs[1], nil
		}
	}

	return "", "", fmt.Errorf("resolver: no known market pattern in %q: %w", raw, domain.ErrUnsupportedPlatform)
}

// pathSegments splits a URL path into its non-empty segments.
func pathSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
