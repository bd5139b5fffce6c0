package models

import (
	"time"

	"github.com/google/uuid"
)

// Countdown is the time remaining in the current aligned window.
type Countdown struct {
	SecondsLeft int       `json:"seconds_left"`
	Formatted   string    `json:"formatted"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	ClosingSoon bool      `json:"closing_soon"`
}

// Snapshot is the full set of records for one window at one instant.
type Snapshot struct {
	ID          uuid.UUID      `json:"id"`
	Window      WindowSpec     `json:"window"`
	GeneratedAt time.Time      `json:"generated_at"`
	Countdown   Countdown      `json:"countdown"`
	Records     []SignalRecord `json:"records"`
}

// Unavailable counts records without a usable quote.
func (s *Snapshot) Unavailable() int {
	n := 0
	for _, r := range s.Records {
		if !r.Quote.Available() {
			n++
		}
	}
	return n
}
