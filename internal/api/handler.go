// Package api exposes the dashboard over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"glucose-dashboard/internal/glucose"
	"glucose-dashboard/internal/service"
)

// Controller is the subset of the simulation controller the API drives.
type Controller interface {
	Start(ctx context.Context) error
	Pause()
	SetActiveSource(source string) error
	SetViewOffset(offset time.Duration) time.Duration
	Dashboard() service.Dashboard
	Snapshot(ctx context.Context, source string) (glucose.AuditEntry, error)
	State() service.State
	Source() string
}

// Ledger is the read and clear side of the audit ledger.
type Ledger interface {
	Load(ctx context.Context, log glucose.Log) ([]glucose.AuditEntry, error)
	Clear(ctx context.Context, log glucose.Log) error
}

// Handler serves the dashboard endpoints.
type Handler struct {
	ctx    context.Context
	ctrl   Controller
	ledger Ledger
	logger zerolog.Logger
}

// NewHandler creates a handler. ctx bounds the lifetime of jobs started
// through the control endpoints.
func NewHandler(ctx context.Context, ctrl Controller, ldg Ledger, logger zerolog.Logger) *Handler {
	return &Handler{
		ctx:    ctx,
		ctrl:   ctrl,
		ledger: ldg,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

type saveRequest struct {
	Source string `json:"source"`
}

type stateResponse struct {
	State  service.State `json:"state"`
	Source string        `json:"source"`
}

type viewResponse struct {
	ViewOffset int `json:"viewOffset"`
}

type clearResponse struct {
	Cleared string `json:"cleared"`
}

// Data returns the dashboard read model. A source query parameter switches
// the active source first.
func (h *Handler) Data(c echo.Context) error {
	if source := c.QueryParam("source"); source != "" {
		if err := h.ctrl.SetActiveSource(source); err != nil {
			if errors.Is(err, service.ErrUnknownSource) {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			return err
		}
	}
	return c.JSON(http.StatusOK, h.ctrl.Dashboard())
}

// History lists manual snapshots.
func (h *Handler) History(c echo.Context) error {
	return h.list(c, glucose.LogHistory)
}

// Danger lists recorded danger events.
func (h *Handler) Danger(c echo.Context) error {
	return h.list(c, glucose.LogDanger)
}

// ClearHistory empties the snapshot log.
func (h *Handler) ClearHistory(c echo.Context) error {
	return h.clear(c, glucose.LogHistory)
}

// ClearDanger empties the danger log.
func (h *Handler) ClearDanger(c echo.Context) error {
	return h.clear(c, glucose.LogDanger)
}

func (h *Handler) list(c echo.Context, log glucose.Log) error {
	entries, err := h.ledger.Load(c.Request().Context(), log)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) clear(c echo.Context, log glucose.Log) error {
	// Clear keeps the in-memory log empty even when persisting fails.
	if err := h.ledger.Clear(c.Request().Context(), log); err != nil {
		h.logger.Warn().Err(err).Str("log", string(log)).Msg("clear not persisted")
	}
	return c.JSON(http.StatusOK, clearResponse{Cleared: string(log)})
}

// Save records a manual snapshot of the latest reading.
func (h *Handler) Save(c echo.Context) error {
	var req saveRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	entry, err := h.ctrl.Snapshot(c.Request().Context(), req.Source)
	if err != nil {
		if errors.Is(err, service.ErrNoSamples) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// Start resumes the simulation.
func (h *Handler) Start(c echo.Context) error {
	if err := h.ctrl.Start(h.ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stateResponse{State: h.ctrl.State(), Source: h.ctrl.Source()})
}

// Pause stops the simulation.
func (h *Handler) Pause(c echo.Context) error {
	h.ctrl.Pause()
	return c.JSON(http.StatusOK, stateResponse{State: h.ctrl.State(), Source: h.ctrl.Source()})
}

// View moves the view window. offset is in minutes back from the latest sample.
func (h *Handler) View(c echo.Context) error {
	minutes, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "offset must be an integer number of minutes")
	}
	applied := h.ctrl.SetViewOffset(time.Duration(minutes) * time.Minute)
	return c.JSON(http.StatusOK, viewResponse{ViewOffset: int(applied.Minutes())})
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"state":  string(h.ctrl.State()),
	})
}
