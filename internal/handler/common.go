// Package handler exposes the HTTP API. Handlers stay thin: they parse
// input, call the ledger or a repository and translate domain errors into
// HTTP statuses.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/middleware"
	"github.com/iliyamo/eventmate/internal/queue"
)

const requestTimeout = 5 * time.Second

// CachePurger drops cached public responses after writes.
type CachePurger interface {
	Purge(ctx context.Context, pathPrefix string) error
}

// Notifier publishes booking notifications.
type Notifier interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// currentUser returns the authenticated user ID or a 401.
func currentUser(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// ledgerStatus maps ledger errors to HTTP statuses.
var ledgerStatus = []struct {
	err    error
	status int
}{
	{ledger.ErrEventNotFound, http.StatusNotFound},
	{ledger.ErrBookingNotFound, http.StatusNotFound},
	{ledger.ErrForbidden, http.StatusForbidden},
	{ledger.ErrNotEligible, http.StatusForbidden},
	{ledger.ErrSoldOut, http.StatusConflict},
	{ledger.ErrAlreadyCancelled, http.StatusConflict},
	{ledger.ErrInvalidTransition, http.StatusConflict},
	{ledger.ErrDuplicateReview, http.StatusConflict},
	{ledger.ErrCapacityBelowSold, http.StatusConflict},
	{ledger.ErrSlugTaken, http.StatusConflict},
	{ledger.ErrEventInactive, http.StatusUnprocessableEntity},
	{ledger.ErrTooLate, http.StatusUnprocessableEntity},
	{ledger.ErrInvalidQuantity, http.StatusBadRequest},
	{ledger.ErrInvalidRating, http.StatusBadRequest},
	{ledger.ErrCommentRequired, http.StatusBadRequest},
	{ledger.ErrInvalidEvent, http.StatusBadRequest},
}

// ledgerError converts a ledger error into an *echo.HTTPError. Unknown
// errors are returned unchanged and end up as 500.
func ledgerError(err error) error {
	for _, m := range ledgerStatus {
		if errors.Is(err, m.err) {
			return echo.NewHTTPError(m.status, err.Error())
		}
	}
	return err
}

func purge(c echo.Context, p CachePurger, prefixes ...string) {
	if p == nil {
		return
	}
	for _, prefix := range prefixes {
		if err := p.Purge(c.Request().Context(), prefix); err != nil {
			c.Logger().Warnf("cache purge %s: %v", prefix, err)
		}
	}
}

// notify publishes ev in the background so a broker outage never fails
// the request that triggered it.
func notify(c echo.Context, n Notifier, ev queue.BookingEvent) {
	if n == nil {
		return
	}
	logger := c.Logger()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := n.Publish(ctx, ev); err != nil {
			logger.Warnf("publish %s for booking %d: %v", ev.Type, ev.BookingID, err)
		}
	}()
}
