package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// AlignWindow returns the UTC start of the size-long window containing t.
// Alignment is on unix seconds so every size dividing a day lands on
// wall-clock boundaries.
func AlignWindow(t time.Time, size time.Duration) time.Time {
	sec := int64(size / time.Second)
	if sec <= 0 {
		return t.UTC().Truncate(time.Second)
	}
	u := t.Unix()
	return time.Unix(u-mod(u, sec), 0).UTC()
}

// FormatMMSS renders seconds as zero-padded minutes and seconds. Minutes
// are not wrapped, so 3600 is "60:00".
func FormatMMSS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
