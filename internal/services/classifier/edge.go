package classifier

import (
	"context"
	"fmt"
	"time"

	"PriceWindow/internal/domain/models"
)

const StrategyEdge = "edge"

type EdgeConfig struct {
	URL            string
	Timeout        time.Duration
	Attempts       int
	NeutralBand    float64 // proba_up within 0.5±band is FLAT
	HighConfidence float64
}

// Edge asks a remote model service for the probability of an up close.
type Edge struct {
	base *httpServiceBase
	cfg  EdgeConfig
}

func NewEdge(cfg EdgeConfig) *Edge {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	if cfg.NeutralBand <= 0 {
		cfg.NeutralBand = 0.05
	}
	if cfg.HighConfidence <= 0 {
		cfg.HighConfidence = 0.7
	}
	return &Edge{base: newHTTPServiceBase(cfg.URL, cfg.Timeout), cfg: cfg}
}

type edgeReq struct {
	Symbol   string             `json:"symbol"`
	Features map[string]float64 `json:"features"`
	Horizon  string             `json:"horizon"`
}

type edgeResp struct {
	ProbaUp    *float64 `json:"proba_up"`
	Regime     string   `json:"regime"`
	Confidence float64  `json:"confidence"`
}

func (e *Edge) Name() string { return StrategyEdge }

func (e *Edge) Classify(ctx context.Context, in models.ClassifyInput) (models.Classification, error) {
	req := edgeReq{
		Symbol:  in.Asset.String(),
		Horizon: in.Window.Label,
		Features: map[string]float64{
			"pct_change":       in.PctChange,
			"elapsed_fraction": in.ElapsedFraction(),
			"seconds_left":     float64(in.Countdown.SecondsLeft),
		},
	}
	var resp edgeResp
	if err := e.base.postJSONWithRetry(ctx, "/edge/predict", req, &resp, e.cfg.Attempts); err != nil {
		return models.Classification{}, fmt.Errorf("edge predict: %w", err)
	}
	if resp.ProbaUp == nil {
		return models.Classification{}, fmt.Errorf("edge predict: proba_up missing")
	}

	p := clamp01(*resp.ProbaUp)
	conf := clamp01(resp.Confidence)
	out := models.Classification{
		ProbabilityUp: p,
		Confidence:    conf,
		Rationale:     fmt.Sprintf("model p_up=%.2f regime=%s", p, resp.Regime),
	}
	high := conf >= e.cfg.HighConfidence
	switch {
	case p >= 0.5+e.cfg.NeutralBand:
		out.Bias, out.Label = models.BiasUp, models.LabelLeanUp
		if high {
			out.Label = models.LabelHighUp
		}
	case p <= 0.5-e.cfg.NeutralBand:
		out.Bias, out.Label = models.BiasDown, models.LabelLeanDown
		if high {
			out.Label = models.LabelHighDown
		}
	default:
		out.Bias, out.Label = models.BiasFlat, models.LabelNeutral
	}
	return out, nil
}
