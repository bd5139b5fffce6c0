package usecase

import (
	"testing"
	"time"

	"PriceWindow/internal/domain/models"
	"PriceWindow/internal/service/clock"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		window    models.WindowSpec
		now       time.Time
		left      int
		formatted string
		closing   bool
	}{
		{"boundary reports full window", models.Window15m, base.Add(15 * time.Minute), 900, "15:00", false},
		{"one second in", models.Window15m, base.Add(time.Second), 899, "14:59", false},
		{"closing soon", models.Window15m, base.Add(14*time.Minute + time.Second), 59, "00:59", true},
		{"last second", models.Window15m, base.Add(15*time.Minute - time.Second), 1, "00:01", true},
		{"hour window", models.Window1h, base.Add(15 * time.Minute), 2700, "45:00", false},
		{"hour boundary", models.Window1h, base, 3600, "60:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cd := Remaining(tt.window, tt.now)
			assert.Equal(t, tt.left, cd.SecondsLeft)
			assert.Equal(t, tt.formatted, cd.Formatted)
			assert.Equal(t, tt.closing, cd.ClosingSoon)
			assert.Equal(t, cd.WindowStart.Add(tt.window.Size), cd.WindowEnd)
		})
	}
}

func TestRemainingRangeAndPeriod(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, w := range []models.WindowSpec{models.Window15m, models.Window1h} {
		size := int(w.Seconds())
		for s := 0; s < 2*size; s += 7 {
			now := base.Add(time.Duration(s) * time.Second)
			cd := Remaining(w, now)
			assert.GreaterOrEqual(t, cd.SecondsLeft, 1)
			assert.LessOrEqual(t, cd.SecondsLeft, size)
			assert.Equal(t, cd.SecondsLeft, Remaining(w, now.Add(w.Size)).SecondsLeft)
		}
	}
}

func TestRemainingIgnoresZone(t *testing.T) {
	loc := time.FixedZone("X", 5*3600+30*60)
	now := time.Date(2024, 5, 1, 15, 50, 30, 0, loc)
	cd := Remaining(models.Window15m, now)
	assert.Equal(t, Remaining(models.Window15m, now.UTC()), cd)
	assert.Equal(t, 570, cd.SecondsLeft)
}

func TestWindowClockCurrent(t *testing.T) {
	fc := clock.NewFixed(time.Date(2024, 5, 1, 10, 7, 30, 0, time.UTC))
	wc := NewWindowClock(fc)
	assert.Equal(t, "07:30", wc.Current(models.Window15m).Formatted)
	fc.Advance(7*time.Minute + 30*time.Second)
	assert.Equal(t, "15:00", wc.Current(models.Window15m).Formatted)
}

func TestWindowClock_InCurrent(t *testing.T) {
	wc := NewWindowClock(clock.NewFixed(time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)))

	assert.True(t, wc.InCurrent(models.Window15m, time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)))
	assert.True(t, wc.InCurrent(models.Window15m, time.Date(2024, 5, 1, 10, 29, 59, 0, time.UTC)))
	assert.False(t, wc.InCurrent(models.Window15m, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)))
	assert.False(t, wc.InCurrent(models.Window15m, time.Date(2024, 5, 1, 10, 14, 59, 0, time.UTC)))
	assert.True(t, wc.InCurrent(models.Window1h, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.False(t, wc.InCurrent(models.Window1h, time.Date(2024, 5, 1, 7, 20, 0, 0, time.UTC)))
}
