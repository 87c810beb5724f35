package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventmate/internal/config"
	"github.com/iliyamo/eventmate/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(e *echo.Echo, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucket_LimitsPerIPAndSkipsHealth(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       3,
		RefillTokens:   3,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip",
		Prefix:         "rl",
		SkipPrefixes:   []string{"/health"},
	}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb))
	e.GET("/v1/events", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	ipA := map[string]string{echo.HeaderXRealIP: "10.0.0.1"}
	for i := 0; i < 3; i++ {
		rec := serve(e, http.MethodGet, "/v1/events", ipA)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, strconv.Itoa(2-i), rec.Header().Get("X-RateLimit-Remaining"))
	}
	rec := serve(e, http.MethodGet, "/v1/events", ipA)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = serve(e, http.MethodGet, "/v1/events", map[string]string{echo.HeaderXRealIP: "10.0.0.2"})
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own bucket")

	for i := 0; i < 5; i++ {
		rec = serve(e, http.MethodGet, "/health", ipA)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestTokenBucket_FailsOpenWithoutRedis(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute, TTL: time.Hour, KeyStrategy: "ip", Prefix: "rl"}
	e := echo.New()
	e.Use(NewTokenBucket(cfg, rdb))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	mr.Close()
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/x", nil).Code)
	}
}

func TestResponseCache_HitMissAndPurge(t *testing.T) {
	_, rdb := newRedis(t)
	cache := NewResponseCache(config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "path_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 10,
	}, rdb)

	var calls atomic.Int64
	e := echo.New()
	e.GET("/v1/events/:id", func(c echo.Context) error {
		n := calls.Add(1)
		return c.JSON(http.StatusOK, map[string]any{"id": c.Param("id"), "n": n})
	}, cache.Middleware())
	e.GET("/v1/missing", func(c echo.Context) error {
		calls.Add(1)
		return echo.NewHTTPError(http.StatusNotFound)
	}, cache.Middleware())

	first := serve(e, http.MethodGet, "/v1/events/1", nil)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := serve(e, http.MethodGet, "/v1/events/1", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))

	other := serve(e, http.MethodGet, "/v1/events/2", nil)
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"), "paths do not share entries")
	assert.Equal(t, int64(2), calls.Load())

	require.NoError(t, cache.Purge(context.Background(), "/v1/events"))
	again := serve(e, http.MethodGet, "/v1/events/1", nil)
	assert.Equal(t, "MISS", again.Header().Get("X-Cache"))

	serve(e, http.MethodGet, "/v1/missing", nil)
	serve(e, http.MethodGet, "/v1/missing", nil)
	assert.Equal(t, int64(5), calls.Load(), "errors are not cached")
}

func TestResponseCache_DisabledWithoutRedis(t *testing.T) {
	cache := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, cache.Middleware())

	rec := serve(e, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	assert.NoError(t, cache.Purge(context.Background(), "/x"))
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	const secret = "test-secret"
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		require.True(t, ok)
		return c.String(http.StatusOK, strconv.FormatUint(id, 10))
	}, JWTAuth(secret))
	e.GET("/host", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		JWTAuth(secret), RequireRole("HOST"))

	user, err := utils.NewAccessToken(secret, 7, "USER", 5)
	require.NoError(t, err)
	host, err := utils.NewAccessToken(secret, 8, "HOST", 5)
	require.NoError(t, err)

	rec := serve(e, http.MethodGet, "/me", map[string]string{echo.HeaderAuthorization: "Bearer " + user.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized","message":"missing bearer token"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", map[string]string{echo.HeaderAuthorization: "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/host", map[string]string{echo.HeaderAuthorization: "Bearer " + user.Token})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(e, http.MethodGet, "/host", map[string]string{echo.HeaderAuthorization: "Bearer " + host.Token})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/boom", func(c echo.Context) error { return assert.AnError })

	rec := serve(e, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_server_error","message":"Internal Server Error"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"not_found"`)
}

func TestTimingAndSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(Timing(time.Second), SecurityHeaders())
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := serve(e, http.MethodGet, "/x", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d, err := strconv.ParseFloat(rec.Header().Get("X-Request-Duration"), 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, 0.0)
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
	assert.Equal(t, "1; mode=block", rec.Header().Get(echo.HeaderXXSSProtection))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get(echo.HeaderReferrerPolicy))
}
