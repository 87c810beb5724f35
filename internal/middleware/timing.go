package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

// Timing adds an X-Request-Duration header (seconds) to every response and
// logs requests slower than slow at warn level.
func Timing(slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Before(func() {
				c.Response().Header().Set("X-Request-Duration", fmt.Sprintf("%.3f", time.Since(start).Seconds()))
			})
			err := next(c)
			if d := time.Since(start); slow > 0 && d > slow {
				c.Logger().Warnf("slow request: %s %s took %.2fs", c.Request().Method, c.Request().URL.Path, d.Seconds())
			}
			return err
		}
	}
}
