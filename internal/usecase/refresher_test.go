package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PriceWindow/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	puts []*models.Snapshot
}

func (m *memStore) Put(s *models.Snapshot) {
	m.mu.Lock()
	m.puts = append(m.puts, s)
	m.mu.Unlock()
}

func (m *memStore) Latest(window string) (*models.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.puts) - 1; i >= 0; i-- {
		if m.puts[i].Window.Label == window {
			return m.puts[i], true
		}
	}
	return nil, false
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puts)
}

type memSink struct {
	mu  sync.Mutex
	got []string
	err error
}

func (s *memSink) Publish(_ context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	s.got = append(s.got, snap.Window.Label)
	s.mu.Unlock()
	return s.err
}

func (s *memSink) Close() error { return nil }

func okBuild(_ context.Context, w models.WindowSpec, _ time.Time) (*models.Snapshot, error) {
	return &models.Snapshot{ID: uuid.New(), Window: w}, nil
}

func TestRefresher_RefreshOnce(t *testing.T) {
	store := &memStore{}
	good, bad := &memSink{}, &memSink{err: errors.New("broker down")}
	m := newCountingMetrics()
	r := NewRefresher(okBuild, store, []models.WindowSpec{models.Window15m, models.Window1h}, time.Second,
		WithSinks(bad, good), WithRefresherMetrics(m))

	assert.True(t, r.LastRefresh().IsZero())
	require.True(t, r.RefreshOnce(context.Background()))

	_, ok := store.Latest("15m")
	assert.True(t, ok)
	_, ok = store.Latest("1h")
	assert.True(t, ok)
	assert.Equal(t, []string{"15m", "1h"}, good.got)
	assert.Equal(t, []string{"15m", "1h"}, bad.got)
	assert.Equal(t, 1, m.refreshCount("ok"))
	assert.False(t, r.LastRefresh().IsZero())
}

func TestRefresher_BuildErrorNotStored(t *testing.T) {
	store := &memStore{}
	m := newCountingMetrics()
	build := func(ctx context.Context, w models.WindowSpec, at time.Time) (*models.Snapshot, error) {
		if w.Label == "1h" {
			return nil, errors.New("bad window")
		}
		return okBuild(ctx, w, at)
	}
	r := NewRefresher(build, store, []models.WindowSpec{models.Window15m, models.Window1h}, time.Second, WithRefresherMetrics(m))
	r.RefreshOnce(context.Background())

	assert.Equal(t, 1, store.count())
	_, ok := store.Latest("1h")
	assert.False(t, ok)
	assert.Equal(t, 1, m.refreshCount("error"))
}

func TestRefresher_SkipsOverlappingTicks(t *testing.T) {
	store := &memStore{}
	m := newCountingMetrics()
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	build := func(ctx context.Context, w models.WindowSpec, at time.Time) (*models.Snapshot, error) {
		entered <- struct{}{}
		<-release
		return okBuild(ctx, w, at)
	}
	r := NewRefresher(build, store, []models.WindowSpec{models.Window15m}, time.Second, WithRefresherMetrics(m))
	ctx := context.Background()

	require.True(t, r.trigger(ctx))
	<-entered
	assert.False(t, r.trigger(ctx))
	assert.False(t, r.RefreshOnce(ctx))
	assert.Equal(t, 0, store.count())

	close(release)
	r.tickWG.Wait()
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 2, m.refreshCount("skipped"))
}

func TestRefresher_CancelledBuildNotPublished(t *testing.T) {
	store := &memStore{}
	ctx, cancel := context.WithCancel(context.Background())
	build := func(_ context.Context, w models.WindowSpec, _ time.Time) (*models.Snapshot, error) {
		cancel()
		return &models.Snapshot{Window: w}, nil
	}
	r := NewRefresher(build, store, []models.WindowSpec{models.Window15m}, time.Second)
	r.RefreshOnce(ctx)
	assert.Equal(t, 0, store.count())
}

func TestRefresher_StartStop(t *testing.T) {
	store := &memStore{}
	r := NewRefresher(okBuild, store, []models.WindowSpec{models.Window15m}, time.Second)
	r.Start(context.Background())

	assert.Eventually(t, func() bool { return store.count() > 0 }, time.Second, 10*time.Millisecond)
	assert.NoError(t, r.Stop(time.Second))
}

func TestNewRefresher_ClampsInterval(t *testing.T) {
	assert.Equal(t, DefaultRefreshInterval, NewRefresher(okBuild, &memStore{}, nil, 0).Interval())
	assert.Equal(t, MinRefreshInterval, NewRefresher(okBuild, &memStore{}, nil, time.Millisecond).Interval())
	assert.Equal(t, MaxRefreshInterval, NewRefresher(okBuild, &memStore{}, nil, time.Hour).Interval())
}
