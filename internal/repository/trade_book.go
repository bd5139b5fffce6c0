package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PriceWindow/internal/domain/models"
	drepo "PriceWindow/internal/domain/repository"
	"PriceWindow/internal/service/clock"
	"PriceWindow/pkg/util"
)

const TradeBookSource = "finnhub"

type windowKey struct {
	symbol string
	window string
	start  int64
}

// TradeBook turns a live trade stream into a PriceSource. The last trade
// is the current price; the first trade seen in a window is its open, and
// only counts if it arrived close enough to the window start.
type TradeBook struct {
	mu      sync.RWMutex
	last    map[string]models.Trade
	firsts  map[windowKey]models.Trade
	windows []models.WindowSpec
	symbols models.SymbolTable

	staleAfter    time.Duration
	openTolerance time.Duration
	clock         clock.Clock
}

type TradeBookOption func(*TradeBook)

func WithStaleAfter(d time.Duration) TradeBookOption {
	return func(b *TradeBook) {
		if d > 0 {
			b.staleAfter = d
		}
	}
}

func WithOpenTolerance(d time.Duration) TradeBookOption {
	return func(b *TradeBook) {
		if d > 0 {
			b.openTolerance = d
		}
	}
}

func WithBookClock(c clock.Clock) TradeBookOption {
	return func(b *TradeBook) {
		if c != nil {
			b.clock = c
		}
	}
}

func NewTradeBook(symbols models.SymbolTable, windows []models.WindowSpec, opts ...TradeBookOption) *TradeBook {
	b := &TradeBook{
		last:          make(map[string]models.Trade),
		firsts:        make(map[windowKey]models.Trade),
		windows:       windows,
		symbols:       symbols,
		staleAfter:    time.Minute,
		openTolerance: 5 * time.Second,
		clock:         clock.System{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Process records a trade. It satisfies the trade pipeline's downstream.
func (b *TradeBook) Process(_ context.Context, t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.last[t.Symbol]; !ok || !t.Time.Before(prev.Time) {
		b.last[t.Symbol] = *t
	}

	for _, w := range b.windows {
		start := util.AlignWindow(t.Time, w.Size)
		k := windowKey{symbol: t.Symbol, window: w.Label, start: start.Unix()}
		if first, ok := b.firsts[k]; !ok || t.Time.Before(first.Time) {
			b.firsts[k] = *t
		}
		// keep the current and previous window only
		cutoff := start.Add(-w.Size).Unix()
		for key := range b.firsts {
			if key.symbol == t.Symbol && key.window == w.Label && key.start < cutoff {
				delete(b.firsts, key)
			}
		}
	}
	return nil
}

// Symbols lists the stream symbols the book serves.
func (b *TradeBook) Symbols() []string {
	out := make([]string, 0, len(b.symbols))
	for _, s := range b.symbols {
		out = append(out, s)
	}
	return out
}

func (b *TradeBook) Name() string { return TradeBookSource }

func (b *TradeBook) Symbol(asset models.Asset) (string, bool) { return b.symbols.Lookup(asset) }

func (b *TradeBook) LastPrice(_ context.Context, symbol string) (float64, error) {
	b.mu.RLock()
	t, ok := b.last[symbol]
	b.mu.RUnlock()

	if !ok {
		return 0, &models.FetchError{Source: TradeBookSource, Op: models.OpLastPrice, Msg: "no trades yet", Err: models.ErrMissingField}
	}
	if age := b.clock.Now().Sub(t.Time); age > b.staleAfter {
		return 0, &models.FetchError{Source: TradeBookSource, Op: models.OpLastPrice, Msg: fmt.Sprintf("last trade %s old", age.Round(time.Second)), Err: models.ErrMissingField}
	}
	return t.Price, nil
}

func (b *TradeBook) WindowOpen(_ context.Context, symbol string, window models.WindowSpec, start time.Time) (float64, error) {
	b.mu.RLock()
	t, ok := b.firsts[windowKey{symbol: symbol, window: window.Label, start: start.Unix()}]
	b.mu.RUnlock()

	if !ok {
		return 0, &models.FetchError{Source: TradeBookSource, Op: models.OpWindowOpen, Msg: "no trade in window", Err: models.ErrMissingField}
	}
	if late := t.Time.Sub(start); late > b.openTolerance {
		return 0, &models.FetchError{Source: TradeBookSource, Op: models.OpWindowOpen, Msg: fmt.Sprintf("first trade %s after open", late.Round(time.Millisecond)), Err: models.ErrMissingField}
	}
	return t.Price, nil
}

var _ drepo.PriceSource = (*TradeBook)(nil)
