package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
)

type fakeSource struct {
	name    string
	symbols models.SymbolTable
	last    float64
	lastErr error
	open    float64
	openErr error
	delay   time.Duration

	lastCalls atomic.Int32
	openCalls atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Symbol(a models.Asset) (string, bool) { return f.symbols.Lookup(a) }

func (f *fakeSource) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.delay):
		return nil
	}
}

func (f *fakeSource) LastPrice(ctx context.Context, _ string) (float64, error) {
	f.lastCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	return f.last, f.lastErr
}

func (f *fakeSource) WindowOpen(ctx context.Context, _ string, _ models.WindowSpec, _ time.Time) (float64, error) {
	f.openCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	return f.open, f.openErr
}

func allSymbols(assets ...models.Asset) models.SymbolTable {
	t := models.SymbolTable{}
	for _, a := range assets {
		t[a] = string(a) + "USDT"
	}
	return t
}

type mapOpenCache struct {
	mu sync.Mutex
	m  map[drepo.OpenKey]float64
}

func newMapOpenCache() *mapOpenCache { return &mapOpenCache{m: map[drepo.OpenKey]float64{}} }

func (c *mapOpenCache) Get(_ context.Context, k drepo.OpenKey) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[k]
	return v, ok
}

func (c *mapOpenCache) Put(_ context.Context, k drepo.OpenKey, p float64, _ time.Duration) {
	c.mu.Lock()
	c.m[k] = p
	c.mu.Unlock()
}

type fakeClassifier struct {
	failFor models.Asset
	calls   atomic.Int32
}

func (f *fakeClassifier) Name() string { return "fake" }

func (f *fakeClassifier) Classify(_ context.Context, in models.ClassifyInput) (models.Classification, error) {
	f.calls.Add(1)
	if in.Asset == f.failFor {
		return models.Classification{}, errors.New("model exploded")
	}
	bias := models.BiasUp
	if in.PctChange < 0 {
		bias = models.BiasDown
	}
	return models.Classification{Bias: bias, Confidence: 0.8, ProbabilityUp: 0.6, Label: models.LabelLeanUp}, nil
}

type countingMetrics struct {
	drepo.NopMetrics
	mu      sync.Mutex
	fetch   map[string]int
	refresh map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{fetch: map[string]int{}, refresh: map[string]int{}}
}

func (m *countingMetrics) RecordFetch(source, outcome string, _ float64) {
	m.mu.Lock()
	m.fetch[source+"/"+outcome]++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordRefresh(outcome string) {
	m.mu.Lock()
	m.refresh[outcome]++
	m.mu.Unlock()
}

func (m *countingMetrics) refreshCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh[outcome]
}
