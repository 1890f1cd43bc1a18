package resolver

import (
	"errors"
	"testing"

	"github.com/wolonglabs/marketsnap/internal/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantPlatform domain.Platform
		wantID       string
		wantErr      error
	}{
		{
			name:         "polymarket event",
			url:          "https://polymarket.com/event/foo-bar",
			wantPlatform: domain.PlatformPolymarket,
			wantID:       "foo-bar",
		},
		{
			name:         "polymarket with www",
			url:          "https://www.polymarket.com/event/will-x-happen",
			wantPlatform: domain.PlatformPolymarket,
			wantID:       "will-x-happen",
		},
		{
			name:         "polymarket nested market slug",
			url:          "https://polymarket.com/event/foo-bar/foo-bar-yes",
			wantPlatform: domain.PlatformPolymarket,
			wantID:       "foo-bar",
		},
		{
			name:         "polymarket with query",
			url:          "https://polymarket.com/event/foo-bar?tid=12345",
			wantPlatform: domain.PlatformPolymarket,
			wantID:       "foo-bar",
		},
		{
			name:         "kalshi market",
			url:          "https://kalshi.com/markets/ABC-25",
			wantPlatform: domain.PlatformKalshi,
			wantID:       "ABC-25",
		},
		{
			name:         "kalshi with www and trailing path",
			url:          "https://www.kalshi.com/markets/KXBTC/bitcoin-price",
			wantPlatform: domain.PlatformKalshi,
			wantID:       "KXBTC",
		},
		{
			name:    "polymarket without event path",
			url:     "https://polymarket.com/markets",
			wantErr: domain.ErrUnsupportedPlatform,
		},
		{
			name:    "unknown host",
			url:     "https://manifold.markets/foo/bar",
			wantErr: domain.ErrUnsupportedPlatform,
		},
		{
			name:    "lookalike host",
			url:     "https://notpolymarket.com/event/foo",
			wantErr: domain.ErrUnsupportedPlatform,
		},
		{
			name:    "not a url",
			url:     "not a url at all",
			wantErr: domain.ErrMalformedURL,
		},
		{
			name:    "missing scheme",
			url:     "polymarket.com/event/foo-bar",
			wantErr: domain.ErrMalformedURL,
		},
		{
			name:    "empty string",
			url:     "",
			wantErr: domain.ErrMalformedURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, id, err := Resolve(tt.url)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if platform != tt.wantPlatform {
				t.Errorf("platform = %q, want %q", platform, tt.wantPlatform)
			}
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
		})
	}
}
