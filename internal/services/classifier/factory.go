package classifier

import (
	"fmt"

	domsvc "PriceWindow/internal/domain/service"
)

type Config struct {
	Strategy string
	Momentum MomentumConfig
	Edge     EdgeConfig
}

// New builds the configured strategy.
func New(cfg Config) (domsvc.SignalClassifier, error) {
	switch cfg.Strategy {
	case StrategyRandom:
		return NewRandom(), nil
	case "", StrategyMomentum:
		return NewMomentum(cfg.Momentum), nil
	case StrategyEdge:
		if cfg.Edge.URL == "" {
			return nil, fmt.Errorf("classifier %q requires a url", StrategyEdge)
		}
		return NewEdge(cfg.Edge), nil
	default:
		return nil, fmt.Errorf("unknown classifier strategy %q", cfg.Strategy)
	}
}

var (
	_ domsvc.SignalClassifier = (*Random)(nil)
	_ domsvc.SignalClassifier = (*Momentum)(nil)
	_ domsvc.SignalClassifier = (*Edge)(nil)
)
