package models

import (
	"math"
	"time"
)

// SourceUnavailable marks a quote no source could serve.
const SourceUnavailable = "unavailable"

// PriceQuote is the current and window-open price of one asset.
type PriceQuote struct {
	Source    string    `json:"source"`
	Current   float64   `json:"current,omitempty"`
	Open      float64   `json:"open,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Available reports whether both prices are present.
func (q PriceQuote) Available() bool {
	return q.Source != SourceUnavailable && q.Current > 0 && q.Open > 0
}

// UnavailableQuote is returned when every source failed.
func UnavailableQuote(at time.Time) PriceQuote {
	return PriceQuote{Source: SourceUnavailable, FetchedAt: at}
}

// PercentChange returns (current-open)/open*100. ok is false when the
// change is undefined.
func PercentChange(current, open float64) (float64, bool) {
	if open <= 0 || current <= 0 {
		return 0, false
	}
	pct := (current - open) / open * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, false
	}
	return pct, true
}
