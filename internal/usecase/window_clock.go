package usecase

import (
	"time"

	"PriceWindow/internal/domain/models"
	"PriceWindow/internal/service/clock"
	"PriceWindow/pkg/util"
)

// closingSoonThreshold matches the "market closing" banner of the dashboard.
const closingSoonThreshold = 60

// WindowClock computes countdowns against wall-clock-aligned windows.
type WindowClock struct {
	clock clock.Clock
}

func NewWindowClock(c clock.Clock) *WindowClock {
	if c == nil {
		c = clock.System{}
	}
	return &WindowClock{clock: c}
}

// Now returns the injected clock's time.
func (w *WindowClock) Now() time.Time { return w.clock.Now() }

// Current is Remaining at the injected clock's now.
func (w *WindowClock) Current(window models.WindowSpec) models.Countdown {
	return Remaining(window, w.clock.Now())
}

// InCurrent reports whether at falls inside the window that is open now.
func (w *WindowClock) InCurrent(window models.WindowSpec, at time.Time) bool {
	return util.AlignWindow(at, window.Size).Equal(util.AlignWindow(w.clock.Now(), window.Size))
}

// Remaining returns the countdown for window at now. SecondsLeft is always
// in [1, size]: exactly on a boundary the full window is reported, never 0.
func Remaining(window models.WindowSpec, now time.Time) models.Countdown {
	size := window.Seconds()
	start := util.AlignWindow(now, window.Size)
	elapsed := now.Unix() - start.Unix()

	left := size - elapsed
	if left <= 0 {
		left = size
	}

	return models.Countdown{
		SecondsLeft: int(left),
		Formatted:   util.FormatMMSS(int(left)),
		WindowStart: start,
		WindowEnd:   start.Add(window.Size),
		ClosingSoon: left < closingSoonThreshold,
	}
}
