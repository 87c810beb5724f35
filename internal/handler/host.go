package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/model"
	"github.com/iliyamo/eventmate/internal/repository"
)

// HostCatalog is the host-side event storage not covered by the ledger.
type HostCatalog interface {
	ListByHost(ctx context.Context, hostID uint64) ([]repository.HostEventRow, error)
}

// HostHandler serves event management for users with the HOST role.
type HostHandler struct {
	Ledger *ledger.Service
	Events HostCatalog
	Cache  CachePurger
}

func NewHostHandler(l *ledger.Service, events HostCatalog, cache CachePurger) *HostHandler {
	return &HostHandler{Ledger: l, Events: events, Cache: cache}
}

type createEventReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	CityID      *uint64   `json:"city_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	PriceCents  int64     `json:"price_cents"`
	Capacity    int       `json:"capacity"`
	IsFeatured  bool      `json:"is_featured"`
}

// updateEventReq carries a partial update; nil fields are left unchanged.
type updateEventReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	IsFeatured  *bool   `json:"is_featured"`
	Capacity    *int    `json:"capacity"`
}

// Create publishes a new event owned by the caller.
func (h *HostHandler) Create(c echo.Context) error {
	hostID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ev, err := h.Ledger.PublishEvent(ctx, model.Event{
		HostID:      hostID,
		CityID:      req.CityID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		PriceCents:  req.PriceCents,
		Capacity:    req.Capacity,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		return ledgerError(err)
	}
	purge(c, h.Cache, eventsPath)
	return c.JSON(http.StatusCreated, ev)
}

// Update changes descriptive fields and, optionally, the capacity.
func (h *HostHandler) Update(c echo.Context) error {
	hostID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ch := ledger.EventChanges{
		Title:      req.Title,
		IsFeatured: req.IsFeatured,
		Capacity:   req.Capacity,
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		ch.Description = &d
	}
	if req.Location != nil {
		l := strings.TrimSpace(*req.Location)
		ch.Location = &l
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	ev, err := h.Ledger.UpdateEvent(ctx, id, hostID, ch)
	if err != nil {
		return ledgerError(err)
	}
	purge(c, h.Cache, eventsPath)
	return c.JSON(http.StatusOK, ev)
}

// Delete soft-deletes an event. Bookings and reviews are kept.
func (h *HostHandler) Delete(c echo.Context) error {
	hostID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Ledger.DeactivateEvent(ctx, id, hostID); err != nil {
		return ledgerError(err)
	}
	purge(c, h.Cache, eventsPath)
	return c.NoContent(http.StatusNoContent)
}

// List returns the caller's events with booking and rating figures.
func (h *HostHandler) List(c echo.Context) error {
	hostID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	rows, err := h.Events.ListByHost(ctx, hostID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// CompleteBookings marks confirmed bookings of the caller's ended events
// as completed.
func (h *HostHandler) CompleteBookings(c echo.Context) error {
	hostID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.Ledger.CompleteHostFinished(ctx, hostID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": n})
}
