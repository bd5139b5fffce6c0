package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/internal/service/clock"
	"PriceWindow/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)

func TestOpenCacheRoundTrip(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	oc := NewOpenCache(mc, nil)
	ctx := context.Background()

	k := drepo.OpenKey{Source: "binance", Symbol: "BTCUSDT", Window: "15m", Start: start}
	_, ok := oc.Get(ctx, k)
	assert.False(t, ok)

	oc.Put(ctx, k, 64000.5, time.Minute)
	p, ok := oc.Get(ctx, k)
	require.True(t, ok)
	assert.Equal(t, 64000.5, p)

	next := k
	next.Start = start.Add(15 * time.Minute)
	_, ok = oc.Get(ctx, next)
	assert.False(t, ok)
}

func TestOpenCacheIgnoresNonPositive(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	oc := NewOpenCache(mc, nil)
	k := drepo.OpenKey{Source: "x", Symbol: "y", Window: "1h", Start: start}

	oc.Put(context.Background(), k, 0, time.Minute)
	_, ok := oc.Get(context.Background(), k)
	assert.False(t, ok)
}

func TestSnapshotStoreLatest(t *testing.T) {
	s := NewSnapshotStore()
	_, ok := s.Latest("15m")
	assert.False(t, ok)
	assert.True(t, s.LastUpdated().IsZero())

	a := &models.Snapshot{Window: models.Window15m, GeneratedAt: start}
	b := &models.Snapshot{Window: models.Window15m, GeneratedAt: start.Add(5 * time.Second)}
	h := &models.Snapshot{Window: models.Window1h, GeneratedAt: start}
	s.Put(a)
	s.Put(h)
	s.Put(b)

	got, ok := s.Latest("15m")
	require.True(t, ok)
	assert.Same(t, b, got)
	got, ok = s.Latest("1h")
	require.True(t, ok)
	assert.Same(t, h, got)
	assert.False(t, s.LastUpdated().IsZero())
}

func TestTradeBook(t *testing.T) {
	clk := clock.NewFixed(start.Add(3 * time.Minute))
	book := NewTradeBook(
		models.SymbolTable{"BTC": "BINANCE:BTCUSDT"},
		[]models.WindowSpec{models.Window15m, models.Window1h},
		WithBookClock(clk),
		WithOpenTolerance(5*time.Second),
		WithStaleAfter(time.Minute),
	)
	ctx := context.Background()
	sym := "BINANCE:BTCUSDT"

	_, err := book.LastPrice(ctx, sym)
	assert.True(t, errors.Is(err, models.ErrMissingField))

	require.NoError(t, book.Process(ctx, &models.Trade{Symbol: sym, Price: 100, Time: start.Add(2 * time.Second)}))
	require.NoError(t, book.Process(ctx, &models.Trade{Symbol: sym, Price: 101, Time: start.Add(2*time.Minute + 30*time.Second)}))
	// out of order print does not replace the last price
	require.NoError(t, book.Process(ctx, &models.Trade{Symbol: sym, Price: 99, Time: start.Add(time.Minute)}))

	p, err := book.LastPrice(ctx, sym)
	require.NoError(t, err)
	assert.Equal(t, 101.0, p)

	open, err := book.WindowOpen(ctx, sym, models.Window15m, start)
	require.NoError(t, err)
	assert.Equal(t, 100.0, open)

	// the hour window started at 10:00 and the first trade came 15 minutes later
	_, err = book.WindowOpen(ctx, sym, models.Window1h, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, models.ErrMissingField))

	clk.Advance(5 * time.Minute)
	_, err = book.LastPrice(ctx, sym)
	assert.True(t, errors.Is(err, models.ErrMissingField), "stale price must be rejected")
}

func TestTradeBookSymbol(t *testing.T) {
	book := NewTradeBook(models.SymbolTable{"BTC": "BINANCE:BTCUSDT"}, nil)
	assert.Equal(t, TradeBookSource, book.Name())
	_, ok := book.Symbol("ETH")
	assert.False(t, ok)
	assert.Equal(t, []string{"BINANCE:BTCUSDT"}, book.Symbols())
}
