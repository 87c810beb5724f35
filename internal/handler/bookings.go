package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/clock"
	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/model"
	"github.com/iliyamo/eventmate/internal/queue"
)

// eventsPath prefixes every cached public event response.
const eventsPath = "/v1/events"

// BookingHandler serves the customer booking endpoints.
type BookingHandler struct {
	Ledger   *ledger.Service
	Clock    clock.Clock
	Notifier Notifier
	Cache    CachePurger
}

func NewBookingHandler(l *ledger.Service, clk clock.Clock, n Notifier, cache CachePurger) *BookingHandler {
	return &BookingHandler{Ledger: l, Clock: clk, Notifier: n, Cache: cache}
}

type createBookingReq struct {
	Quantity int `json:"quantity"`
}

// Create books tickets for the event in the path.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req := createBookingReq{Quantity: 1}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Ledger.CreateBooking(ctx, eventID, uid, req.Quantity)
	if err != nil {
		return ledgerError(err)
	}
	purge(c, h.Cache, eventsPath)
	return c.JSON(http.StatusCreated, b)
}

// Confirm records the (simulated) payment of a pending booking.
func (h *BookingHandler) Confirm(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	b, err := h.Ledger.ConfirmBooking(ctx, id, uid)
	if err != nil {
		return ledgerError(err)
	}
	if ev, err := h.Ledger.Event(ctx, b.EventID); err == nil {
		notify(c, h.Notifier, queue.NewBookingEvent(queue.QueueBookingConfirmed, b, ev, h.Clock.Now()))
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel cancels a booking and reports the refund owed.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	out, err := h.Ledger.CancelBooking(ctx, id, uid)
	if err != nil {
		return ledgerError(err)
	}
	purge(c, h.Cache, eventsPath)
	if ev, err := h.Ledger.Event(ctx, out.Booking.EventID); err == nil {
		notify(c, h.Notifier, queue.NewBookingEvent(queue.QueueBookingCancelled, out.Booking, ev, h.Clock.Now()))
	}
	return c.JSON(http.StatusOK, out)
}

// Mine lists the caller's bookings, newest first.
func (h *BookingHandler) Mine(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Ledger.BookingsForUser(ctx, uid)
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": list})
}
