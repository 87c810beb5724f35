package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/clock"
	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/model"
	"github.com/iliyamo/eventmate/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	minSuggestLen = 2
	suggestCities = 3
	suggestEvents = 5
)

// Catalog is the read side of the event listing.
type Catalog interface {
	SearchEvents(ctx context.Context, q repository.EventSearchQuery) ([]repository.EventRow, int64, error)
	SuggestEvents(ctx context.Context, prefix string, now time.Time, limit int) ([]repository.EventSuggestion, error)
	ListReviews(ctx context.Context, eventID uint64) ([]model.Review, error)
}

// CityDirectory lists and looks up cities.
type CityDirectory interface {
	List(ctx context.Context) ([]model.City, error)
	GetBySlug(ctx context.Context, slug string) (model.City, error)
	SuggestCities(ctx context.Context, prefix string, limit int) ([]model.City, error)
}

// EventHandler serves the public, read-only event endpoints.
type EventHandler struct {
	Ledger  *ledger.Service
	Catalog Catalog
	Cities  CityDirectory
	Clock   clock.Clock
}

func NewEventHandler(l *ledger.Service, cat Catalog, cities CityDirectory, clk clock.Clock) *EventHandler {
	return &EventHandler{Ledger: l, Catalog: cat, Cities: cities, Clock: clk}
}

// List searches active upcoming events.
func (h *EventHandler) List(c echo.Context) error {
	q, err := h.searchQuery(c)
	if err != nil {
		return err
	}
	return h.search(c, q)
}

// CityEvents lists upcoming events in one city.
func (h *EventHandler) CityEvents(c echo.Context) error {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	ctx, cancel := requestContext(c)
	defer cancel()

	city, err := h.Cities.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrCityNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "city not found")
	}
	if err != nil {
		return err
	}
	q, err := h.searchQuery(c)
	if err != nil {
		return err
	}
	q.City = city.Slug
	return h.search(c, q)
}

func (h *EventHandler) search(c echo.Context, q repository.EventSearchQuery) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, total, err := h.Catalog.SearchEvents(ctx, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      q.Page,
		"page_size": q.PageSize,
	})
}

func (h *EventHandler) searchQuery(c echo.Context) (repository.EventSearchQuery, error) {
	q := repository.EventSearchQuery{
		Q:        strings.TrimSpace(c.QueryParam("q")),
		Location: strings.TrimSpace(c.QueryParam("location")),
		Category: strings.ToLower(strings.TrimSpace(c.QueryParam("category"))),
		City:     strings.ToLower(strings.TrimSpace(c.QueryParam("city"))),
		Sort:     strings.TrimSpace(c.QueryParam("sort")),
		Now:      h.Clock.Now(),
	}
	if q.Category != "" && !model.ValidCategory(q.Category) {
		return q, echo.NewHTTPError(http.StatusBadRequest, "unknown category")
	}
	if q.Sort == "" {
		q.Sort = "start_date"
	}
	if !repository.ValidEventSort(q.Sort) {
		return q, echo.NewHTTPError(http.StatusBadRequest, "unknown sort")
	}
	if d := c.QueryParam("date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return q, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		q.Date = t
	}
	var err error
	if q.MinPrice, err = priceParam(c, "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = priceParam(c, "max_price"); err != nil {
		return q, err
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return q, echo.NewHTTPError(http.StatusBadRequest, "min_price exceeds max_price")
	}

	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	if q.Page < 1 {
		q.Page = 1
	}
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q, nil
}

func priceParam(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative integer (cents)")
	}
	return &v, nil
}

type eventDetail struct {
	model.Event
	SoldOut bool                 `json:"sold_out"`
	Rating  ledger.RatingSummary `json:"rating"`
	Reviews []model.Review       `json:"reviews"`
}

// Detail returns one event by numeric id or slug, with its reviews.
func (h *EventHandler) Detail(c echo.Context) error {
	ref := c.Param("id")
	ctx, cancel := requestContext(c)
	defer cancel()

	var (
		ev  model.Event
		err error
	)
	if id, perr := strconv.ParseUint(ref, 10, 64); perr == nil {
		ev, err = h.Ledger.Event(ctx, id)
	} else {
		ev, err = h.Ledger.EventBySlug(ctx, strings.ToLower(ref))
	}
	if err != nil {
		return ledgerError(err)
	}
	if !ev.IsActive {
		return echo.NewHTTPError(http.StatusNotFound, ledger.ErrEventNotFound.Error())
	}

	rating, err := h.Ledger.RatingSummary(ctx, ev.ID)
	if err != nil {
		return err
	}
	reviews, err := h.Catalog.ListReviews(ctx, ev.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, eventDetail{Event: ev, SoldOut: ev.SoldOut(), Rating: rating, Reviews: reviews})
}

// Autocomplete suggests cities and events for a search box.
func (h *EventHandler) Autocomplete(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if len([]rune(term)) < minSuggestLen {
		return c.JSON(http.StatusOK, echo.Map{"cities": []model.City{}, "events": []repository.EventSuggestion{}})
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cities, err := h.Cities.SuggestCities(ctx, term, suggestCities)
	if err != nil {
		return err
	}
	events, err := h.Catalog.SuggestEvents(ctx, term, h.Clock.Now(), suggestEvents)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"cities": cities, "events": events})
}

// ListCities lists every city.
func (h *EventHandler) ListCities(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	cities, err := h.Cities.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cities})
}
