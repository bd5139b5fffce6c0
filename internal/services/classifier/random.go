package classifier

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"PriceWindow/internal/domain/models"
)

const StrategyRandom = "random"

var (
	upReasons = []string{
		"Bid-side depth stacking into the close",
		"Funding flipped positive with rising open interest",
		"Higher lows held through the last three prints",
		"Spot premium widening against perps",
	}
	downReasons = []string{
		"Offers refilling above every bounce",
		"Open interest rising on falling price",
		"Lower highs since the window opened",
		"Perp discount widening into the close",
	}
	flatReasons = []string{
		"Range-bound with no clear aggressor",
		"Volume drying up around the open",
		"Two-sided flow, no edge",
		"Waiting for a break of the window range",
	}
)

// Random is the demo strategy: a weighted draw with fixed probability
// buckets. It ignores the quote entirely.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom seeds from the wall clock. Use NewRandomWithRand for reproducible runs.
func NewRandom() *Random {
	seed := uint64(time.Now().UnixNano())
	return NewRandomWithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func NewRandomWithRand(r *rand.Rand) *Random {
	return &Random{rng: r}
}

func (r *Random) Name() string { return StrategyRandom }

func (r *Random) Classify(_ context.Context, _ models.ClassifyInput) (models.Classification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	draw := r.rng.Float64()
	switch {
	case draw > 0.6:
		return models.Classification{
			Bias:          models.BiasUp,
			Confidence:    r.uniform(0.70, 0.85),
			ProbabilityUp: 0.70,
			Label:         models.LabelHighUp,
			Rationale:     r.pick(upReasons),
		}, nil
	case draw < 0.2:
		return models.Classification{
			Bias:          models.BiasDown,
			Confidence:    r.uniform(0.70, 0.85),
			ProbabilityUp: 0.30,
			Label:         models.LabelHighDown,
			Rationale:     r.pick(downReasons),
		}, nil
	default:
		return models.Classification{
			Bias:          models.BiasFlat,
			Confidence:    r.uniform(0.10, 0.30),
			ProbabilityUp: 0.50,
			Label:         models.LabelNeutral,
			Rationale:     r.pick(flatReasons),
		}, nil
	}
}

func (r *Random) uniform(lo, hi float64) float64 {
	return lo + r.rng.Float64()*(hi-lo)
}

func (r *Random) pick(pool []string) string {
	return pool[r.rng.IntN(len(pool))]
}
