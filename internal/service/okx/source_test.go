package okx

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

var windowStart = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestSource(t *testing.T, h http.HandlerFunc) *Source {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(models.SymbolTable{"SOL": "SOL-USDT"}, srv.URL, 2*time.Second)
}

func TestLastPrice(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v5/market/ticker", r.URL.Path)
		assert.Equal(t, "SOL-USDT", r.URL.Query().Get("instId"))
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[{"instType":"SPOT","instId":"SOL-USDT","last":"151.23"}]}`))
	})

	p, err := src.LastPrice(context.Background(), "SOL-USDT")
	require.NoError(t, err)
	assert.Equal(t, 151.23, p)
}

func TestLastPriceHTTPError(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := src.LastPrice(context.Background(), "SOL-USDT")
	assert.True(t, errors.Is(err, models.ErrBadStatus))
}

func TestLastPriceMissingField(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[]}`))
	})

	_, err := src.LastPrice(context.Background(), "SOL-USDT")
	assert.True(t, errors.Is(err, models.ErrMissingField))
}

func TestWindowOpen(t *testing.T) {
	ms := windowStart.UnixMilli()
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/v5/market/candles", r.URL.Path)
		assert.Equal(t, "15m", q.Get("bar"))
		assert.Equal(t, fmt.Sprint(ms+900000), q.Get("after"))
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[["%d","150.10","152.00","149.80","151.23","1000","151000","151000","0"]]}`, ms)
	})

	p, err := src.WindowOpen(context.Background(), "SOL-USDT", models.Window15m, windowStart)
	require.NoError(t, err)
	assert.Equal(t, 150.10, p)
}

func TestWindowOpenMalformed(t *testing.T) {
	ms := windowStart.UnixMilli()
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code":"0","msg":"","data":[["%d","n/a"]]}`, ms)
	})

	_, err := src.WindowOpen(context.Background(), "SOL-USDT", models.Window15m, windowStart)
	assert.True(t, errors.Is(err, models.ErrMalformed))
}
