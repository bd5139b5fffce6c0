package classifier

import (
	"context"
	"fmt"
	"time"

	"PriceWindow/internal/domain/models"
	domsvc "PriceWindow/internal/domain/service"
	svcmetrics "PriceWindow/internal/service/metrics"
)

// Instrumented bounds a classifier with a timeout and records its latency.
type Instrumented struct {
	inner   domsvc.SignalClassifier
	timeout time.Duration
}

func NewInstrumented(inner domsvc.SignalClassifier, timeout time.Duration) *Instrumented {
	svcmetrics.Register()
	return &Instrumented{inner: inner, timeout: timeout}
}

func (i *Instrumented) Name() string { return i.inner.Name() }

type classifyResult struct {
	c   models.Classification
	err error
}

// Classify returns at the timeout even if the inner strategy ignores ctx.
// The abandoned call finishes in the background and its result is dropped.
func (i *Instrumented) Classify(ctx context.Context, in models.ClassifyInput) (models.Classification, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	name := i.inner.Name()
	start := time.Now()
	done := make(chan classifyResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- classifyResult{err: fmt.Errorf("%s: panic: %v", name, r)}
			}
		}()
		c, err := i.inner.Classify(ctx, in)
		done <- classifyResult{c: c, err: err}
	}()

	var res classifyResult
	select {
	case res = <-done:
		if res.err == nil && ctx.Err() != nil {
			res.err = fmt.Errorf("%s: %w", name, ctx.Err())
		}
	case <-ctx.Done():
		res.err = fmt.Errorf("%s: %w", name, ctx.Err())
	}
	svcmetrics.ClassifierLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if res.err != nil {
		svcmetrics.ClassifierErrors.WithLabelValues(name).Inc()
		return models.Classification{}, res.err
	}
	return res.c, nil
}

var _ domsvc.SignalClassifier = (*Instrumented)(nil)
