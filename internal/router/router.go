// Package router wires handlers to routes and route-level middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventmate/internal/handler"
	"github.com/iliyamo/eventmate/internal/middleware"
)

// RegisterRoutes registers the health and metrics endpoints.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/health", handler.Health)
	e.GET("/health/live", h.Live)
	e.GET("/health/ready", h.Ready)
	e.GET("/metrics", h.Metrics)
}

// RegisterAuth registers sign-up, sign-in and token endpoints. Register,
// login and refresh are public; the rest require an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	jwt := middleware.JWTAuth(jwtSecret)
	g.POST("/logout", a.Logout, jwt)
	e.GET("/v1/me", a.Me, jwt)
}

// RegisterPublic registers the browse endpoints. cache wraps the event
// listing and detail, which are the hot read paths.
func RegisterPublic(e *echo.Echo, h *handler.EventHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/events", h.List, cache)
	e.GET("/v1/events/:id", h.Detail, cache)
	e.GET("/v1/search/autocomplete", h.Autocomplete)
	e.GET("/v1/cities", h.ListCities)
	e.GET("/v1/cities/:slug/events", h.CityEvents)
}
