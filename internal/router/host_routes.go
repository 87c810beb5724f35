package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/handler"
	"github.com/iliyamo/eventmate/internal/middleware"
	"github.com/iliyamo/eventmate/internal/model"
)

// RegisterHost registers event management under /v1/host. All routes
// require a valid JWT carrying the HOST role.
func RegisterHost(e *echo.Echo, h *handler.HostHandler, jwtSecret string) {
	g := e.Group(
		"/v1/host",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleHost),
	)
	g.GET("/events", h.List)
	g.POST("/events", h.Create)
	g.PATCH("/events/:id", h.Update)
	g.DELETE("/events/:id", h.Delete)
	g.POST("/bookings/complete", h.CompleteBookings)
}
