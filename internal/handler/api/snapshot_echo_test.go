package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PriceWindow/internal/domain/models"
	"PriceWindow/internal/repository"
	"PriceWindow/internal/service/clock"
	"PriceWindow/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBuilder struct {
	calls  int
	lastAt time.Time
}

func (s *stubBuilder) Build(_ context.Context, w models.WindowSpec, at time.Time) (*models.Snapshot, error) {
	s.calls++
	s.lastAt = at
	return &models.Snapshot{ID: uuid.New(), Window: w, Records: []models.SignalRecord{{Asset: "BTC", Window: w.Label}}}, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*echo.Echo, *stubBuilder, *repository.SnapshotStore) {
	t.Helper()
	b := &stubBuilder{}
	store := repository.NewSnapshotStore()
	wc := usecase.NewWindowClock(clock.NewFixed(time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)))
	h := NewSnapshotEchoHandler(nil, b, store, wc, []models.WindowSpec{models.Window15m, models.Window1h}, store.LastUpdated)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, b, store
}

func get(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestCountdown(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec, env := get(t, e, "/api/countdown")
	assert.Equal(t, http.StatusOK, rec.Code)
	var cd models.Countdown
	require.NoError(t, json.Unmarshal(env.Data, &cd))
	assert.Equal(t, 600, cd.SecondsLeft)
	assert.Equal(t, "10:00", cd.Formatted)

	_, env = get(t, e, "/api/countdown?window=1h")
	require.NoError(t, json.Unmarshal(env.Data, &cd))
	assert.Equal(t, "40:00", cd.Formatted)
}

func TestCountdown_UnknownWindow(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec, env := get(t, e, "/api/countdown?window=5m")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, http.StatusBadRequest, env.Status)
	assert.Contains(t, string(env.Data), "ERR_ONEOF")
}

func TestSnapshot_LatestThenFresh(t *testing.T) {
	e, b, store := newTestServer(t)

	// nothing stored yet: built on demand
	rec, _ := get(t, e, "/api/snapshot?window=15m")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, b.calls)

	stored := &models.Snapshot{ID: uuid.New(), Window: models.Window15m}
	store.Put(stored)

	_, env := get(t, e, "/api/snapshot?window=15m")
	var got models.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, 1, b.calls)

	get(t, e, "/api/snapshot?window=15m&fresh=true")
	assert.Equal(t, 2, b.calls)
}

func TestSnapshot_At(t *testing.T) {
	e, b, _ := newTestServer(t)

	rec, _ := get(t, e, "/api/snapshot?window=1h&at=2024-05-01T10:05:00Z")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, b.lastAt.Equal(time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC)))

	rec, env := get(t, e, "/api/snapshot?at=yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_FORMAT")
}

func TestSnapshot_AtOutsideOpenWindow(t *testing.T) {
	e, b, _ := newTestServer(t)

	cases := []string{
		"/api/snapshot?window=15m&at=2024-05-01T07:20:00Z", // three hours back
		"/api/snapshot?window=15m&at=2024-05-01T10:14:59Z", // previous window
		"/api/snapshot?window=15m&at=2024-05-01T10:30:00Z", // next window
		"/api/snapshot?window=1h&at=2024-05-01T09:30:00Z",
	}
	for _, target := range cases {
		rec, env := get(t, e, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, string(env.Data), "ERR_RANGE", target)
	}
	assert.Zero(t, b.calls)

	rec, _ := get(t, e, "/api/snapshot?window=15m&at=2024-05-01T10:15:00Z")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, b.calls)
}

func TestHealthAndWindows(t *testing.T) {
	e, _, store := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"starting"`)

	store.Put(&models.Snapshot{Window: models.Window15m})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	_, env := get(t, e, "/api/windows")
	assert.JSONEq(t, `[{"label":"15m","size_seconds":900},{"label":"1h","size_seconds":3600}]`, string(env.Data))
}
