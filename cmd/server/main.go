package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/eventmate/internal/clock"
	"github.com/iliyamo/eventmate/internal/config"
	"github.com/iliyamo/eventmate/internal/database"
	"github.com/iliyamo/eventmate/internal/handler"
	"github.com/iliyamo/eventmate/internal/ledger"
	"github.com/iliyamo/eventmate/internal/middleware"
	"github.com/iliyamo/eventmate/internal/queue"
	"github.com/iliyamo/eventmate/internal/repository"
	"github.com/iliyamo/eventmate/internal/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}
	cancel()

	// nil when Redis is unreachable; rate limiting and caching then pass through.
	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	clk := clock.NewSystem()
	svc := ledger.New(repository.NewStore(db), clk,
		ledger.WithCancellationCutoff(cfg.Ledger.CancellationCutoff),
		ledger.WithRefundPolicy(cfg.Ledger.RefundFullWindow, cfg.Ledger.RefundPartialPercent),
	)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	events := repository.NewEventRepo(db)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	var notifier handler.Notifier
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.RabbitURL != "" {
		notifier = queue.NewPublisher(cfg.RabbitURL)
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.NotifyLogDir)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("booking consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(middleware.RequestLogger())
	e.Use(echoMw.Recover())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Timing(cfg.SlowRequest))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb, repository.NewStatsRepo(db)))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewEventHandler(svc, eventCatalog{events, repository.NewReviewRepo(db)}, repository.NewCityRepo(db), clk), cache.Middleware())
	router.RegisterCustomer(e,
		handler.NewBookingHandler(svc, clk, notifier, cache),
		handler.NewReviewHandler(svc, cache),
		handler.NewAccountHandler(svc, users, tokens, events, cache),
		cfg.JWTSecret)
	router.RegisterHost(e, handler.NewHostHandler(svc, events, cache), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- e.Start(addr)
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}

// eventCatalog joins event search with review listing for the public
// handlers.
type eventCatalog struct {
	*repository.EventRepo
	*repository.ReviewRepo
}

func logLevel(s string) glog.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}
