package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/pkg/logger"
)

const (
	MinRefreshInterval     = time.Second
	MaxRefreshInterval     = time.Minute
	DefaultRefreshInterval = 5 * time.Second
)

// SnapshotBuildFunc is satisfied by (*SnapshotBuilder).Build.
type SnapshotBuildFunc func(ctx context.Context, window models.WindowSpec, at time.Time) (*models.Snapshot, error)

// Refresher rebuilds snapshots for every window on a fixed interval and
// publishes only complete ones.
type Refresher struct {
	build    SnapshotBuildFunc
	store    drepo.SnapshotStore
	sinks    []drepo.SnapshotSink
	windows  []models.WindowSpec
	interval time.Duration
	metrics  drepo.Metrics
	log      *logger.Logger

	running atomic.Bool
	lastRun atomic.Int64 // unix nanos of the last finished tick
	cancel  context.CancelFunc
	loopWG  sync.WaitGroup
	tickWG  sync.WaitGroup
}

type RefresherOption func(*Refresher)

func WithSinks(sinks ...drepo.SnapshotSink) RefresherOption {
	return func(r *Refresher) { r.sinks = append(r.sinks, sinks...) }
}

func WithRefresherMetrics(m drepo.Metrics) RefresherOption {
	return func(r *Refresher) {
		if m != nil {
			r.metrics = m
		}
	}
}

func WithRefresherLogger(l *logger.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.log = l.Component("refresher")
		}
	}
}

// NewRefresher clamps interval into [MinRefreshInterval, MaxRefreshInterval].
func NewRefresher(build SnapshotBuildFunc, store drepo.SnapshotStore, windows []models.WindowSpec, interval time.Duration, opts ...RefresherOption) *Refresher {
	switch {
	case interval <= 0:
		interval = DefaultRefreshInterval
	case interval < MinRefreshInterval:
		interval = MinRefreshInterval
	case interval > MaxRefreshInterval:
		interval = MaxRefreshInterval
	}
	r := &Refresher{
		build:    build,
		store:    store,
		windows:  windows,
		interval: interval,
		metrics:  drepo.NopMetrics{},
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Refresher) Interval() time.Duration { return r.interval }

// LastRefresh returns when the last tick finished, zero if none has.
func (r *Refresher) LastRefresh() time.Time {
	n := r.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// Start runs one tick immediately and then one per interval.
func (r *Refresher) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.loopWG.Add(1)
	go func() {
		defer r.loopWG.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		r.trigger(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.trigger(ctx)
			}
		}
	}()
	r.log.Info("refresher started",
		logger.Duration("interval_ms", r.interval),
		logger.Int("windows", len(r.windows)),
	)
}

// trigger starts a tick in the background unless one is still running.
func (r *Refresher) trigger(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.metrics.RecordRefresh("skipped")
		r.log.Debug("previous refresh still running, tick skipped")
		return false
	}
	r.tickWG.Add(1)
	go func() {
		defer r.tickWG.Done()
		defer r.running.Store(false)
		r.refresh(ctx)
	}()
	return true
}

// RefreshOnce runs a tick synchronously. It reports false when a tick was
// already in flight and nothing was done.
func (r *Refresher) RefreshOnce(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.metrics.RecordRefresh("skipped")
		return false
	}
	defer r.running.Store(false)
	r.refresh(ctx)
	return true
}

func (r *Refresher) refresh(ctx context.Context) {
	failed := false
	for _, w := range r.windows {
		if ctx.Err() != nil {
			return
		}
		snap, err := r.build(ctx, w, time.Time{})
		if err != nil {
			failed = true
			r.log.Error("snapshot build failed", logger.String("window", w.Label), logger.Error(err))
			continue
		}
		// Never publish a snapshot whose build was cut short.
		if ctx.Err() != nil {
			return
		}
		r.store.Put(snap)
		r.publish(ctx, snap)
	}
	r.lastRun.Store(time.Now().UnixNano())
	if failed {
		r.metrics.RecordRefresh("error")
		return
	}
	r.metrics.RecordRefresh("ok")
}

func (r *Refresher) publish(ctx context.Context, snap *models.Snapshot) {
	for _, s := range r.sinks {
		if err := s.Publish(ctx, snap); err != nil {
			r.metrics.RecordError("sink")
			r.log.Warn("snapshot sink failed",
				logger.String("snapshot_id", snap.ID.String()),
				logger.String("window", snap.Window.Label),
				logger.Error(err),
			)
		}
	}
}

// Stop cancels the loop and waits up to timeout for the in-flight tick.
func (r *Refresher) Stop(timeout time.Duration) error {
	if r.cancel != nil {
		r.cancel()
	}
	done := make(chan struct{})
	go func() {
		r.loopWG.Wait()
		r.tickWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("refresher: stop timed out")
	}
}
