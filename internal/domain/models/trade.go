package models

import "time"

// Trade is a single print from a streaming venue.
type Trade struct {
	Symbol string
	Price  float64
	Volume float64
	Time   time.Time
}
