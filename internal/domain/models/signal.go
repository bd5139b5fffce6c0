package models

import "time"

// Bias is the directional call for one asset in one window.
type Bias string

const (
	BiasUp    Bias = "UP"
	BiasDown  Bias = "DOWN"
	BiasFlat  Bias = "FLAT"
	BiasError Bias = "ERROR"
)

const (
	LabelHighUp    = "HIGH CONFIDENCE UP"
	LabelHighDown  = "HIGH CONFIDENCE DOWN"
	LabelLeanUp    = "LEAN UP"
	LabelLeanDown  = "LEAN DOWN"
	LabelNeutral   = "NEUTRAL / CHOP"
	LabelDataError = "DATA ERROR"
	LabelModelErr  = "MODEL ERROR"
)

type Classification struct {
	Bias          Bias    `json:"bias"`
	Confidence    float64 `json:"confidence"`
	ProbabilityUp float64 `json:"probability_up"`
	Label         string  `json:"label"`
	Rationale     string  `json:"rationale"`
}

// DataErrorClassification is used when no usable quote exists.
func DataErrorClassification(reason string) Classification {
	return Classification{Bias: BiasError, Label: LabelDataError, Rationale: reason}
}

// ModelErrorClassification is used when a classifier fails on a good quote.
func ModelErrorClassification(reason string) Classification {
	return Classification{Bias: BiasError, Label: LabelModelErr, Rationale: reason}
}

// ClassifyInput is what a classifier sees for one asset.
type ClassifyInput struct {
	Asset     Asset
	Window    WindowSpec
	Quote     PriceQuote
	PctChange float64
	Countdown Countdown
}

// ElapsedFraction is how far into the window the input was taken, in [0,1).
func (in ClassifyInput) ElapsedFraction() float64 {
	size := in.Window.Seconds()
	if size <= 0 {
		return 0
	}
	return float64(size-int64(in.Countdown.SecondsLeft)) / float64(size)
}

// SignalRecord is one row of a snapshot. Never mutated after creation.
type SignalRecord struct {
	Asset     Asset      `json:"asset"`
	Name      string     `json:"name"`
	Window    string     `json:"window"`
	Quote     PriceQuote `json:"quote"`
	PctChange *float64   `json:"pct_change"`
	Classification
	Platform  string    `json:"platform,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
