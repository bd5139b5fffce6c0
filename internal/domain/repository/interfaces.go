package repository

import (
	"context"
	"time"

	"PriceWindow/internal/domain/models"
)

// PriceSource is one upstream quote provider. Both halves must succeed for
// a quote to count.
type PriceSource interface {
	Name() string
	Symbol(asset models.Asset) (string, bool)
	LastPrice(ctx context.Context, symbol string) (float64, error)
	WindowOpen(ctx context.Context, symbol string, window models.WindowSpec, start time.Time) (float64, error)
}

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Trade, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SnapshotSink receives every complete snapshot after it is stored.
type SnapshotSink interface {
	Publish(ctx context.Context, s *models.Snapshot) error
	Close() error
}

// SnapshotStore holds the latest complete snapshot per window.
type SnapshotStore interface {
	Put(s *models.Snapshot)
	Latest(window string) (*models.Snapshot, bool)
}

// OpenKey identifies one window-open price.
type OpenKey struct {
	Source string
	Symbol string
	Window string
	Start  time.Time
}

// OpenCache remembers window-open prices for the rest of their window.
type OpenCache interface {
	Get(ctx context.Context, key OpenKey) (float64, bool)
	Put(ctx context.Context, key OpenKey, price float64, ttl time.Duration)
}

type Metrics interface {
	RecordFetch(source, outcome string, seconds float64)
	RecordLastPrice(asset, source string, price float64)
	RecordUnavailable(window string, n int)
	RecordBuild(window string, seconds float64)
	RecordRefresh(outcome string)
	RecordError(kind string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, string, float64)     {}
func (NopMetrics) RecordLastPrice(string, string, float64) {}
func (NopMetrics) RecordUnavailable(string, int)           {}
func (NopMetrics) RecordBuild(string, float64)             {}
func (NopMetrics) RecordRefresh(string)                    {}
func (NopMetrics) RecordError(string)                      {}
