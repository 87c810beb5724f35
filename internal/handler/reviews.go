package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/model"
)

// ReviewHandler serves reviews and favorites.
type ReviewHandler struct {
	Ledger *ledger.Service
	Cache  CachePurger
}

func NewReviewHandler(l *ledger.Service, cache CachePurger) *ReviewHandler {
	return &ReviewHandler{Ledger: l, Cache: cache}
}

type reviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Submit records the caller's review of an attended event.
func (h *ReviewHandler) Submit(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	rv, err := h.Ledger.SubmitReview(ctx, eventID, uid, req.Rating, req.Comment)
	if err != nil {
		return ledgerError(err)
	}
	summary, err := h.Ledger.RatingSummary(ctx, eventID)
	if err != nil {
		return err
	}
	purge(c, h.Cache, eventsPath)
	return c.JSON(http.StatusCreated, echo.Map{"review": rv, "rating": summary})
}

// ToggleFavorite adds or removes the event from the caller's favorites.
func (h *ReviewHandler) ToggleFavorite(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	on, err := h.Ledger.ToggleFavorite(ctx, eventID, uid)
	if err != nil {
		return ledgerError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": eventID, "favorited": on})
}

// Favorites lists the caller's favorite events.
func (h *ReviewHandler) Favorites(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Ledger.FavoritesForUser(ctx, uid)
	if err != nil {
		return err
	}
	if list == nil {
		list = []model.Favorite{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": list})
}
