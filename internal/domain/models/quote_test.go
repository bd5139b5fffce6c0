package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		open    float64
		want    float64
		ok      bool
	}{
		{name: "up ten percent", current: 110, open: 100, want: 10, ok: true},
		{name: "down ten percent", current: 90, open: 100, want: -10, ok: true},
		{name: "unchanged", current: 100, open: 100, want: 0, ok: true},
		{name: "zero open", current: 100, open: 0},
		{name: "negative open", current: 100, open: -5},
		{name: "absent current", current: 0, open: 100},
		{name: "overflows to infinity", current: math.MaxFloat64, open: 1e-300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PercentChange(tt.current, tt.open)
			assert.Equal(t, tt.ok, ok)
			assert.False(t, math.IsInf(got, 0))
			assert.False(t, math.IsNaN(got))
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			} else {
				assert.Zero(t, got)
			}
		})
	}
}

func TestPriceQuoteAvailable(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)

	assert.True(t, PriceQuote{Source: "binance", Current: 110, Open: 100, FetchedAt: at}.Available())
	assert.False(t, PriceQuote{Source: "binance", Current: 110, FetchedAt: at}.Available())
	assert.False(t, UnavailableQuote(at).Available())
}
