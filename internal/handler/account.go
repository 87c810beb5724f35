package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/utils"
)

// HostEvents deactivates every event of a host.
type HostEvents interface {
	DeactivateByHost(ctx context.Context, hostID uint64) (int64, error)
}

// AccountHandler serves account deletion.
type AccountHandler struct {
	Ledger *ledger.Service
	Users  UserStore
	Tokens TokenStore
	Events HostEvents
	Cache  CachePurger
}

func NewAccountHandler(l *ledger.Service, users UserStore, tokens TokenStore, events HostEvents, cache CachePurger) *AccountHandler {
	return &AccountHandler{Ledger: l, Users: users, Tokens: tokens, Events: events, Cache: cache}
}

type deleteAccountReq struct {
	Password string `json:"password"`
}

// Delete deactivates the caller's account after checking the password.
// Upcoming bookings are released, hosted events are deactivated and all
// refresh tokens are revoked, in one transaction.
func (h *AccountHandler) Delete(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req deleteAccountReq
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil || !u.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
	}

	var released int
	var hidden int64
	err = h.Users.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if released, err = h.Ledger.ReleaseUserBookings(ctx, uid); err != nil {
			return err
		}
		if u.IsHost {
			if hidden, err = h.Events.DeactivateByHost(ctx, uid); err != nil {
				return err
			}
		}
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return err
		}
		return h.Users.Deactivate(ctx, uid)
	})
	if err != nil {
		return err
	}
	if released > 0 || hidden > 0 {
		purge(c, h.Cache, eventsPath)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"released_bookings":  released,
		"deactivated_events": hidden,
	})
}
