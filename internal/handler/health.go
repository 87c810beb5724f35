package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/eventmate/internal/repository"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatsSource reports the counters exposed on /metrics.
type StatsSource interface {
	Counts(ctx context.Context) (repository.Stats, error)
}

// HealthHandler serves liveness, readiness and metrics.
type HealthHandler struct {
	DB    Pinger
	Redis *redis.Client
	Stats StatsSource
}

func NewHealthHandler(db Pinger, rdb *redis.Client, stats StatsSource) *HealthHandler {
	return &HealthHandler{DB: db, Redis: rdb, Stats: stats}
}

// Health is a plain "ok" for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Live reports that the process is running.
func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "alive"})
}

// Ready checks the database and, when configured, Redis.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := echo.Map{"database": "ok", "redis": "disabled"}
	status := http.StatusOK

	if err := h.DB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.Redis != nil {
		checks["redis"] = "ok"
		if err := redisRoundTrip(ctx, h.Redis); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	return c.JSON(status, echo.Map{"status": state, "checks": checks})
}

// redisRoundTrip writes, reads back and deletes a scratch key.
func redisRoundTrip(ctx context.Context, rdb *redis.Client) error {
	const key = "health:ping"
	if err := rdb.Set(ctx, key, "1", 10*time.Second).Err(); err != nil {
		return err
	}
	if err := rdb.Get(ctx, key).Err(); err != nil {
		return err
	}
	return rdb.Del(ctx, key).Err()
}

// Metrics returns basic counters as JSON.
func (h *HealthHandler) Metrics(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	s, err := h.Stats.Counts(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s)
}
