package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SubscribeAndRead(t *testing.T) {
	subscribed := make(chan string, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		var msg map[string]string
		if assert.NoError(t, conn.ReadJSON(&msg)) {
			subscribed <- msg["symbol"]
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"trade","data":[{"s":"BINANCE:BTCUSDT","p":64000.5,"v":0.1,"t":1714558500123}]}`))
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New("k", wsURL, []string{"BINANCE:BTCUSDT"}, 10*time.Millisecond, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	assert.True(t, c.IsConnected())
	require.NoError(t, c.Subscribe(ctx))
	assert.Equal(t, "BINANCE:BTCUSDT", <-subscribed)

	trades, _ := c.Read(ctx)
	tr := <-trades
	require.NotNil(t, tr)
	assert.Equal(t, "BINANCE:BTCUSDT", tr.Symbol)
	assert.Equal(t, 64000.5, tr.Price)
	assert.Equal(t, int64(1714558500123), tr.Time.UnixMilli())

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestClient_SubscribeNotConnected(t *testing.T) {
	c := New("k", "", nil, 0, 0)
	assert.Error(t, c.Subscribe(context.Background()))
}
