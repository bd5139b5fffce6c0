package usecase

import (
	"context"
	"errors"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/internal/service/ratelimit"
	"PriceWindow/pkg/logger"
)

// MaxSourceTimeout caps the per-attempt deadline.
const MaxSourceTimeout = 5 * time.Second

const defaultSourceTimeout = 4 * time.Second

// Attempt records one source tried for one asset.
type Attempt struct {
	Source   string
	Err      error
	Duration time.Duration
}

// Resolution is the outcome of walking the chain for one asset. Quote is
// always set; it is the unavailable quote when every source failed.
type Resolution struct {
	Quote    models.PriceQuote
	Attempts []Attempt
	Err      error // last failure, nil on success
}

// SourceChain tries price sources in priority order and stops at the first
// complete quote.
type SourceChain struct {
	sources []drepo.PriceSource
	timeout time.Duration
	limiter *ratelimit.Limiter
	opens   drepo.OpenCache
	metrics drepo.Metrics
	log     *logger.Logger
}

type ChainOption func(*SourceChain)

// WithSourceTimeout sets the per-attempt deadline, capped at MaxSourceTimeout.
func WithSourceTimeout(d time.Duration) ChainOption {
	return func(c *SourceChain) {
		if d > 0 {
			c.timeout = d
		}
		if c.timeout > MaxSourceTimeout {
			c.timeout = MaxSourceTimeout
		}
	}
}

func WithLimiter(l *ratelimit.Limiter) ChainOption {
	return func(c *SourceChain) { c.limiter = l }
}

func WithOpenCache(oc drepo.OpenCache) ChainOption {
	return func(c *SourceChain) { c.opens = oc }
}

func WithChainMetrics(m drepo.Metrics) ChainOption {
	return func(c *SourceChain) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithChainLogger(l *logger.Logger) ChainOption {
	return func(c *SourceChain) {
		if l != nil {
			c.log = l.Component("source_chain")
		}
	}
}

func NewSourceChain(sources []drepo.PriceSource, opts ...ChainOption) *SourceChain {
	c := &SourceChain{
		sources: sources,
		timeout: defaultSourceTimeout,
		metrics: drepo.NopMetrics{},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sources returns the chain in priority order.
func (c *SourceChain) Sources() []drepo.PriceSource { return c.sources }

// Timeout returns the per-attempt deadline.
func (c *SourceChain) Timeout() time.Duration { return c.timeout }

// Resolve walks the chain for asset. It never returns an error: when no
// source produces a complete quote the result carries the unavailable quote.
func (c *SourceChain) Resolve(ctx context.Context, asset models.Asset, window models.WindowSpec, start time.Time) Resolution {
	var res Resolution

	for _, src := range c.sources {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			break
		}
		name := src.Name()

		symbol, ok := src.Symbol(asset)
		if !ok {
			c.metrics.RecordFetch(name, "skipped", 0)
			continue
		}

		if c.limiter != nil && !c.limiter.Allow(name) {
			err := &models.FetchError{Source: name, Asset: asset, Op: models.OpRateLimit, Err: models.ErrRateLimited}
			res.Attempts = append(res.Attempts, Attempt{Source: name, Err: err})
			res.Err = err
			c.metrics.RecordFetch(name, "rate_limited", 0)
			continue
		}

		began := time.Now()
		actx, cancel := context.WithTimeout(ctx, c.timeout)
		q, err := fetchQuote(actx, src, asset, symbol, window, start, c.opens)
		cancel()
		took := time.Since(began)

		res.Attempts = append(res.Attempts, Attempt{Source: name, Err: err, Duration: took})
		if err != nil {
			res.Err = err
			c.metrics.RecordFetch(name, outcomeOf(err), took.Seconds())
			c.log.Debug("source failed, trying next",
				logger.String("asset", asset.String()),
				logger.String("source", name),
				logger.String("window", window.Label),
				logger.Error(err),
			)
			continue
		}

		c.metrics.RecordFetch(name, "ok", took.Seconds())
		c.metrics.RecordLastPrice(asset.String(), name, q.Current)
		res.Quote = q
		res.Err = nil
		return res
	}

	res.Quote = models.UnavailableQuote(time.Now().UTC())
	c.log.Warn("no source available",
		logger.String("asset", asset.String()),
		logger.String("window", window.Label),
		logger.Int("attempts", len(res.Attempts)),
	)
	return res
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, models.ErrMissingField):
		return "incomplete"
	default:
		return "error"
	}
}
