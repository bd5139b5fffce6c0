package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const secondsPerDay = 86400

// WindowSpec is a fixed-length, wall-clock-aligned market window.
type WindowSpec struct {
	Label string        `json:"label"`
	Size  time.Duration `json:"-"`
}

var (
	Window15m = WindowSpec{Label: "15m", Size: 15 * time.Minute}
	Window1h  = WindowSpec{Label: "1h", Size: time.Hour}
)

// ParseWindow builds a WindowSpec from a duration label such as "15m" or "1h".
func ParseWindow(label string) (WindowSpec, error) {
	d, err := time.ParseDuration(label)
	if err != nil {
		return WindowSpec{}, &ConfigurationError{Field: "windows", Msg: fmt.Sprintf("bad window %q: %v", label, err)}
	}
	w := WindowSpec{Label: label, Size: d}
	if err := w.Validate(); err != nil {
		return WindowSpec{}, err
	}
	return w, nil
}

// Seconds returns the window size in whole seconds.
func (w WindowSpec) Seconds() int64 {
	return int64(w.Size / time.Second)
}

// Validate requires a positive whole number of seconds that divides a day.
func (w WindowSpec) Validate() error {
	if w.Size <= 0 || w.Size%time.Second != 0 {
		return &ConfigurationError{Field: "windows", Msg: fmt.Sprintf("window %q must be a positive whole number of seconds", w.Label)}
	}
	if secondsPerDay%w.Seconds() != 0 {
		return &ConfigurationError{Field: "windows", Msg: fmt.Sprintf("window %q does not divide 86400s evenly", w.Label)}
	}
	return nil
}

// MarshalJSON adds size_seconds next to the label.
func (w WindowSpec) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"label":%q,"size_seconds":%d}`, w.Label, w.Seconds())), nil
}

func (w *WindowSpec) UnmarshalJSON(b []byte) error {
	var raw struct {
		Label       string `json:"label"`
		SizeSeconds int64  `json:"size_seconds"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	w.Label = raw.Label
	w.Size = time.Duration(raw.SizeSeconds) * time.Second
	return nil
}
