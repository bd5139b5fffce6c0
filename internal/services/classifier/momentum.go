package classifier

import (
	"context"
	"fmt"
	"math"

	"PriceWindow/internal/domain/models"
)

const StrategyMomentum = "momentum"

type MomentumConfig struct {
	FlatBandPct    float64 // |pct| below this is FLAT
	StrongMovePct  float64 // |pct| at or above this is full strength
	HighConfidence float64 // confidence needed for a HIGH CONFIDENCE label
}

func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{FlatBandPct: 0.05, StrongMovePct: 0.5, HighConfidence: 0.7}
}

// Momentum calls the direction of the move so far, weighting it by how
// much of the window has already elapsed.
type Momentum struct {
	cfg MomentumConfig
}

func NewMomentum(cfg MomentumConfig) *Momentum {
	def := DefaultMomentumConfig()
	if cfg.FlatBandPct <= 0 {
		cfg.FlatBandPct = def.FlatBandPct
	}
	if cfg.StrongMovePct <= cfg.FlatBandPct {
		cfg.StrongMovePct = math.Max(def.StrongMovePct, cfg.FlatBandPct*2)
	}
	if cfg.HighConfidence <= 0 || cfg.HighConfidence > 1 {
		cfg.HighConfidence = def.HighConfidence
	}
	return &Momentum{cfg: cfg}
}

func (m *Momentum) Name() string { return StrategyMomentum }

func (m *Momentum) Classify(_ context.Context, in models.ClassifyInput) (models.Classification, error) {
	pct := in.PctChange
	abs := math.Abs(pct)
	elapsed := clamp01(in.ElapsedFraction())

	if abs < m.cfg.FlatBandPct {
		conf := 0.1 + 0.2*(1-abs/m.cfg.FlatBandPct)
		return models.Classification{
			Bias:          models.BiasFlat,
			Confidence:    conf,
			ProbabilityUp: 0.5,
			Label:         models.LabelNeutral,
			Rationale:     fmt.Sprintf("%+.3f%% is inside the ±%.2f%% flat band", pct, m.cfg.FlatBandPct),
		}, nil
	}

	strength := math.Min(1, abs/m.cfg.StrongMovePct)
	edge := 0.5 * strength * elapsed
	conf := clamp01(0.5 + edge)

	out := models.Classification{Confidence: conf}
	high := conf >= m.cfg.HighConfidence
	if pct > 0 {
		out.Bias = models.BiasUp
		out.ProbabilityUp = clamp01(0.5 + edge)
		out.Label = models.LabelLeanUp
		if high {
			out.Label = models.LabelHighUp
		}
	} else {
		out.Bias = models.BiasDown
		out.ProbabilityUp = clamp01(0.5 - edge)
		out.Label = models.LabelLeanDown
		if high {
			out.Label = models.LabelHighDown
		}
	}
	out.Rationale = fmt.Sprintf("%+.3f%% since open, strength %.2f, %.0f%% of window elapsed", pct, strength, elapsed*100)
	return out, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
