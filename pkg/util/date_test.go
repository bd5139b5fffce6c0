package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestAlignWindow(t *testing.T) {
	cases := []struct {
		in   time.Time
		size time.Duration
		want time.Time
	}{
		{time.Date(2024, 5, 1, 10, 7, 30, 0, time.UTC), 15 * time.Minute, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC), 15 * time.Minute, time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)},
		{time.Date(2024, 5, 1, 10, 59, 59, 999, time.UTC), time.Hour, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := AlignWindow(c.in, c.size); !got.Equal(c.want) {
			t.Fatalf("AlignWindow(%v, %v) = %v, want %v", c.in, c.size, got, c.want)
		}
	}
}

func TestAlignWindowNonUTCInput(t *testing.T) {
	loc := time.FixedZone("X", 5*3600+30*60)
	in := time.Date(2024, 5, 1, 15, 52, 0, 0, loc) // 10:22 UTC
	want := time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)
	if got := AlignWindow(in, 15*time.Minute); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFormatMMSS(t *testing.T) {
	cases := map[int]string{0: "00:00", 1: "00:01", 59: "00:59", 61: "01:01", 900: "15:00", 3600: "60:00"}
	for in, want := range cases {
		if got := FormatMMSS(in); got != want {
			t.Fatalf("FormatMMSS(%d) = %q, want %q", in, got, want)
		}
	}
}
