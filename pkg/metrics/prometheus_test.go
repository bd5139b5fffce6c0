package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordFetch("binance", "ok", 0.12)
	r.RecordFetch("binance", "ok", 0.08)
	r.RecordFetch("okx", "skipped", 0)
	r.RecordRefresh("skipped")
	r.RecordRefresh("ok")
	r.RecordLastPrice("BTC", "binance", 64000)
	r.RecordUnavailable("15m", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("binance", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("okx", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.refreshSkipped))
	assert.Equal(t, 64000.0, testutil.ToFloat64(r.lastPrice.WithLabelValues("BTC", "binance")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.unavailable.WithLabelValues("15m")))
}
