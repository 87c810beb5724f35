package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/handler"
	"github.com/iliyamo/eventmate/internal/middleware"
)

// RegisterCustomer registers the endpoints any signed-in user may call:
// bookings, reviews, favorites and account deletion. Hosts book like
// everyone else.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, r *handler.ReviewHandler, a *handler.AccountHandler, jwtSecret string) {
	jwt := middleware.JWTAuth(jwtSecret)

	e.POST("/v1/events/:id/bookings", b.Create, jwt)
	e.GET("/v1/my-bookings", b.Mine, jwt)
	e.POST("/v1/bookings/:id/confirm", b.Confirm, jwt)
	e.DELETE("/v1/bookings/:id", b.Cancel, jwt)

	e.POST("/v1/events/:id/reviews", r.Submit, jwt)
	e.POST("/v1/events/:id/favorite", r.ToggleFavorite, jwt)
	e.GET("/v1/my-favorites", r.Favorites, jwt)

	e.DELETE("/v1/me", a.Delete, jwt)
}
