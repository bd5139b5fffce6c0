package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"PriceWindow/internal/domain/models"
	domrepo "PriceWindow/internal/domain/repository"
	"PriceWindow/internal/usecase"
	xhttp "PriceWindow/pkg/http"
	xlogger "PriceWindow/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Builder produces a snapshot on demand.
type Builder interface {
	Build(ctx context.Context, window models.WindowSpec, at time.Time) (*models.Snapshot, error)
}

// SnapshotEchoHandler serves countdowns and signal snapshots to the presenter.
type SnapshotEchoHandler struct {
	logger      *xlogger.Logger
	builder     Builder
	store       domrepo.SnapshotStore
	clock       *usecase.WindowClock
	windows     []models.WindowSpec
	lastRefresh func() time.Time
}

func NewSnapshotEchoHandler(
	logger *xlogger.Logger,
	builder Builder,
	store domrepo.SnapshotStore,
	clock *usecase.WindowClock,
	windows []models.WindowSpec,
	lastRefresh func() time.Time,
) *SnapshotEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if lastRefresh == nil {
		lastRefresh = func() time.Time { return time.Time{} }
	}
	return &SnapshotEchoHandler{
		logger:      logger.Component("api"),
		builder:     builder,
		store:       store,
		clock:       clock,
		windows:     windows,
		lastRefresh: lastRefresh,
	}
}

func (h *SnapshotEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/windows", h.Windows)
	g.GET("/countdown", h.Countdown)
	g.GET("/snapshot", h.Snapshot)
	e.GET("/healthz", h.Health)
}

func (h *SnapshotEchoHandler) Windows(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.windows)
}

func (h *SnapshotEchoHandler) Countdown(c echo.Context) error {
	req := &models.CountdownRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, ok := h.window(req.Window)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{xhttp.OneOfError("window", h.labels())})
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, h.clock.Current(w))
}

func (h *SnapshotEchoHandler) Snapshot(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, ok := h.window(req.Window)
	if !ok {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{xhttp.OneOfError("window", h.labels())})
	}

	var at time.Time
	if req.At != "" {
		t, ok := xhttp.ParseTime(req.At)
		if !ok {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_FORMAT",
				Field:   "at",
				Message: "at must be RFC3339 or unix seconds",
			}})
		}
		if !h.clock.InCurrent(w, t) {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{outsideWindowError(h.clock.Current(w))})
		}
		at = t
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	if at.IsZero() && !req.Fresh {
		if snap, ok := h.store.Latest(w.Label); ok {
			return xhttp.SuccessResponse(c, snap)
		}
	}

	snap, err := h.builder.Build(c.Request().Context(), w, at)
	if err != nil {
		if errors.Is(err, usecase.ErrOutsideWindow) {
			// the window rolled over between the check and the build
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{outsideWindowError(h.clock.Current(w))})
		}
		h.logger.Error("snapshot build failed", xlogger.String("window", w.Label), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("snapshot build failed").WithParam("window", w.Label).WithError(err))
	}
	return xhttp.SuccessResponse(c, snap)
}

func outsideWindowError(cd models.Countdown) xhttp.ValidationError {
	return xhttp.ValidationError{
		Code:  "ERR_RANGE",
		Field: "at",
		Message: fmt.Sprintf("at must be within the open window [%s, %s)",
			cd.WindowStart.Format(time.RFC3339), cd.WindowEnd.Format(time.RFC3339)),
	}
}

type healthResponse struct {
	Status      string     `json:"status"`
	Windows     []string   `json:"windows"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
}

func (h *SnapshotEchoHandler) Health(c echo.Context) error {
	res := healthResponse{Status: "starting", Windows: h.labels()}
	if t := h.lastRefresh(); !t.IsZero() {
		res.Status = "ok"
		res.LastRefresh = &t
	}
	return c.JSON(http.StatusOK, res)
}

func (h *SnapshotEchoHandler) window(label string) (models.WindowSpec, bool) {
	for _, w := range h.windows {
		if w.Label == label {
			return w, true
		}
	}
	return models.WindowSpec{}, false
}

func (h *SnapshotEchoHandler) labels() []string {
	out := make([]string, len(h.windows))
	for i, w := range h.windows {
		out[i] = w.Label
	}
	return out
}
