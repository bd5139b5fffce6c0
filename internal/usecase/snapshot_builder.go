package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	domsvc "PriceWindow/internal/domain/service"
	"PriceWindow/pkg/logger"

	"github.com/google/uuid"
)

const defaultMaxConcurrency = 8

// ErrOutsideWindow is returned by Build for an instant outside the open
// window. Sources only serve live prices, so an older window cannot be priced.
var ErrOutsideWindow = errors.New("instant outside the current window")

// SnapshotBuilder produces one record per configured asset for a window.
type SnapshotBuilder struct {
	assets         []models.AssetSpec
	chain          *SourceChain
	classifier     domsvc.SignalClassifier
	clock          *WindowClock
	platform       string
	maxConcurrency int
	classifyTO     time.Duration
	log            *logger.Logger
	metrics        drepo.Metrics
}

type BuilderOption func(*SnapshotBuilder)

// WithPlatform sets the platform tag stamped on every record.
func WithPlatform(p string) BuilderOption {
	return func(b *SnapshotBuilder) { b.platform = p }
}

func WithMaxConcurrency(n int) BuilderOption {
	return func(b *SnapshotBuilder) {
		if n > 0 {
			b.maxConcurrency = n
		}
	}
}

// WithClassifierTimeout adds the classifier's own deadline to the build deadline.
func WithClassifierTimeout(d time.Duration) BuilderOption {
	return func(b *SnapshotBuilder) {
		if d > 0 {
			b.classifyTO = d
		}
	}
}

func WithBuilderLogger(l *logger.Logger) BuilderOption {
	return func(b *SnapshotBuilder) {
		if l != nil {
			b.log = l.Component("snapshot_builder")
		}
	}
}

func WithBuilderMetrics(m drepo.Metrics) BuilderOption {
	return func(b *SnapshotBuilder) {
		if m != nil {
			b.metrics = m
		}
	}
}

func NewSnapshotBuilder(
	assets []models.AssetSpec,
	chain *SourceChain,
	classifier domsvc.SignalClassifier,
	clock *WindowClock,
	opts ...BuilderOption,
) *SnapshotBuilder {
	if clock == nil {
		clock = NewWindowClock(nil)
	}
	b := &SnapshotBuilder{
		assets:         assets,
		chain:          chain,
		classifier:     classifier,
		clock:          clock,
		maxConcurrency: defaultMaxConcurrency,
		classifyTO:     2 * time.Second,
		log:            logger.Nop(),
		metrics:        drepo.NopMetrics{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Assets returns the configured assets in display order.
func (b *SnapshotBuilder) Assets() []models.AssetSpec { return b.assets }

// Clock returns the window clock the builder uses.
func (b *SnapshotBuilder) Clock() *WindowClock { return b.clock }

// Deadline bounds one build: every source may time out once per asset
// slot, plus one classifier call.
func (b *SnapshotBuilder) Deadline() time.Duration {
	n := len(b.chain.Sources())
	if n == 0 {
		n = 1
	}
	return time.Duration(n)*b.chain.Timeout() + b.classifyTO
}

// Build computes a snapshot for window at at (zero means now). at must lie
// in the currently open window. Only an invalid window or instant is an
// error; per-asset failures become error records.
func (b *SnapshotBuilder) Build(ctx context.Context, window models.WindowSpec, at time.Time) (*models.Snapshot, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = b.clock.Now()
	} else if !b.clock.InCurrent(window, at) {
		return nil, fmt.Errorf("%w: %s not in %s window starting %s", ErrOutsideWindow,
			at.UTC().Format(time.RFC3339), window.Label, b.clock.Current(window).WindowStart.Format(time.RFC3339))
	}
	began := time.Now()

	ctx, cancel := context.WithTimeout(ctx, b.Deadline())
	defer cancel()

	cd := Remaining(window, at)
	records := make([]models.SignalRecord, len(b.assets))

	sem := make(chan struct{}, b.maxConcurrency)
	var wg sync.WaitGroup
	for i := range b.assets {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			records[i] = b.buildRecord(ctx, b.assets[i], window, cd)
		}(i)
	}
	wg.Wait()

	snap := &models.Snapshot{
		ID:          uuid.New(),
		Window:      window,
		GeneratedAt: time.Now().UTC(),
		Countdown:   cd,
		Records:     records,
	}
	b.metrics.RecordBuild(window.Label, time.Since(began).Seconds())
	b.metrics.RecordUnavailable(window.Label, snap.Unavailable())
	b.log.Debug("snapshot built",
		logger.String("snapshot_id", snap.ID.String()),
		logger.String("window", window.Label),
		logger.Int("records", len(records)),
		logger.Int("unavailable", snap.Unavailable()),
		logger.Duration("took_ms", time.Since(began)),
	)
	return snap, nil
}

func (b *SnapshotBuilder) buildRecord(ctx context.Context, spec models.AssetSpec, window models.WindowSpec, cd models.Countdown) (rec models.SignalRecord) {
	rec = models.SignalRecord{
		Asset:     spec.Asset,
		Name:      spec.Name,
		Window:    window.Label,
		Platform:  b.platform,
		CreatedAt: time.Now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("record panicked",
				logger.String("asset", spec.Asset.String()),
				logger.Any("panic", r),
			)
			rec.Classification = models.ModelErrorClassification(fmt.Sprintf("panic: %v", r))
		}
	}()

	res := b.chain.Resolve(ctx, spec.Asset, window, cd.WindowStart)
	rec.Quote = res.Quote

	if !res.Quote.Available() {
		rec.Classification = models.DataErrorClassification(unavailableReason(res))
		return rec
	}

	pct, ok := models.PercentChange(res.Quote.Current, res.Quote.Open)
	if !ok {
		rec.Classification = models.DataErrorClassification("percent change undefined")
		return rec
	}
	rec.PctChange = &pct

	if b.classifier == nil {
		rec.Classification = models.ModelErrorClassification("no classifier configured")
		return rec
	}
	cls, err := b.classifier.Classify(ctx, models.ClassifyInput{
		Asset:     spec.Asset,
		Window:    window,
		Quote:     res.Quote,
		PctChange: pct,
		Countdown: cd,
	})
	if err != nil {
		b.log.Warn("classifier failed",
			logger.String("asset", spec.Asset.String()),
			logger.String("window", window.Label),
			logger.String("strategy", b.classifier.Name()),
			logger.Error(err),
		)
		rec.Classification = models.ModelErrorClassification(err.Error())
		return rec
	}
	rec.Classification = cls
	return rec
}

func unavailableReason(res Resolution) string {
	if res.Err != nil {
		return fmt.Sprintf("no price source available: %v", res.Err)
	}
	if len(res.Attempts) == 0 {
		return "no source configured for asset"
	}
	return "no price source available"
}
