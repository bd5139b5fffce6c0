package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PriceWindow/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var windowStart = time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)

func newTestSource(t *testing.T, h http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(models.SymbolTable{"BTC": "BTCUSDT"}, 2*time.Second, WithBaseURL(srv.URL))
}

func TestLastPrice(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"64123.50000000"}`))
	})

	p, err := src.LastPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 64123.5, p)
}

func TestLastPriceBadStatus(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	_, err := src.LastPrice(context.Background(), "BTCUSDT")
	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, Name, fe.Source)
	assert.Equal(t, models.OpLastPrice, fe.Op)
}

func TestWindowOpen(t *testing.T) {
	ms := windowStart.UnixMilli()
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "15m", r.URL.Query().Get("interval"))
		assert.Equal(t, fmt.Sprint(ms), r.URL.Query().Get("startTime"))
		fmt.Fprintf(w, `[[%d,"64000.10","64200.00","63900.00","64100.00","12.5",%d,"0",10,"0","0","0"]]`, ms, ms+899999)
	})

	p, err := src.WindowOpen(context.Background(), "BTCUSDT", models.Window15m, windowStart)
	require.NoError(t, err)
	assert.Equal(t, 64000.10, p)
}

func TestWindowOpenRejectsOtherCandle(t *testing.T) {
	next := windowStart.Add(15 * time.Minute).UnixMilli()
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[[%d,"64000.10","64200.00","63900.00","64100.00","12.5",%d,"0",10,"0","0","0"]]`, next, next+899999)
	})

	_, err := src.WindowOpen(context.Background(), "BTCUSDT", models.Window15m, windowStart)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMissingField))
}

func TestWindowOpenEmpty(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := src.WindowOpen(context.Background(), "BTCUSDT", models.Window1h, windowStart)
	assert.True(t, errors.Is(err, models.ErrMissingField))
}

func TestSymbol(t *testing.T) {
	src := New(models.SymbolTable{"BTC": "BTCUSDT"}, time.Second)
	s, ok := src.Symbol("BTC")
	assert.True(t, ok)
	assert.Equal(t, "BTCUSDT", s)
	_, ok = src.Symbol("PEPE")
	assert.False(t, ok)
}
