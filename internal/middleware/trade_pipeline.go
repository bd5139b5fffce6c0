package middleware

import (
	"context"
	"fmt"

	"PriceWindow/internal/domain/models"
	domrepo "PriceWindow/internal/domain/repository"
)

// Proc is the minimal downstream the pipeline needs.
type Proc interface {
	Process(ctx context.Context, t *models.Trade) error
}

// TradePipeline sits between the websocket stream and the trade book. It
// drops invalid prints and symbols nobody subscribed to.
type TradePipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	allowed   map[string]struct{}
	transform func(*models.Trade) *models.Trade
}

type PipelineOption func(*TradePipeline)

// WithSymbols restricts the pipeline to the given symbols.
func WithSymbols(symbols []string) PipelineOption {
	return func(p *TradePipeline) {
		if len(symbols) == 0 {
			return
		}
		p.allowed = make(map[string]struct{}, len(symbols))
		for _, s := range symbols {
			p.allowed[s] = struct{}{}
		}
	}
}

// WithTransform sets a hook that may rewrite a trade before validation.
func WithTransform(fn func(*models.Trade) *models.Trade) PipelineOption {
	return func(p *TradePipeline) { p.transform = fn }
}

func NewTradePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *TradePipeline {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	p := &TradePipeline{proc: proc, metrics: metrics}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates t and forwards it downstream.
func (p *TradePipeline) Process(ctx context.Context, t *models.Trade) error {
	if p.transform != nil && t != nil {
		t = p.transform(t)
	}
	if err := validateTrade(t); err != nil {
		p.metrics.RecordError("trade_invalid")
		return err
	}
	if p.allowed != nil {
		if _, ok := p.allowed[t.Symbol]; !ok {
			p.metrics.RecordError("trade_unknown_symbol")
			return nil
		}
	}
	if err := p.proc.Process(ctx, t); err != nil {
		p.metrics.RecordError("trade_downstream")
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

func validateTrade(t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Time.IsZero() || t.Time.Unix() <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price <= 0 || t.Volume < 0 {
		return fmt.Errorf("non-positive price or negative volume")
	}
	return nil
}
