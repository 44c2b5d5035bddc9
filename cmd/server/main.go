package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-web/internal/api"
	"github.com/iliyamo/cinema-web/internal/checkout"
	"github.com/iliyamo/cinema-web/internal/config"
	"github.com/iliyamo/cinema-web/internal/handler"
	"github.com/iliyamo/cinema-web/internal/logger"
	"github.com/iliyamo/cinema-web/internal/middleware"
	"github.com/iliyamo/cinema-web/internal/notify"
	"github.com/iliyamo/cinema-web/internal/queue"
	"github.com/iliyamo/cinema-web/internal/router"
	"github.com/iliyamo/cinema-web/internal/seats"
	"github.com/iliyamo/cinema-web/internal/session"
	"github.com/iliyamo/cinema-web/internal/storage"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	rdb := config.NewRedisClient(log)
	var scoped, persistent storage.Store
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		scoped = storage.NewRedisStore(rdb, "sess", cfg.SessionTTL)
		persistent = storage.NewRedisStore(rdb, "persist", cfg.PersistentTTL)
	} else {
		scoped = storage.NewMemoryStore(cfg.SessionTTL)
		persistent = storage.NewMemoryStore(cfg.PersistentTTL)
	}

	client := api.New(cfg.BackendURL, cfg.BackendTimeout, log)
	outbox := notify.NewOutbox(scoped, log)
	pending := storage.PendingBookings{Store: scoped}
	sessions := session.NewManager(client, persistent, cfg.VerifyEvery, log)

	var events checkout.EventSink
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL, log)
	}
	registry := checkout.NewRegistry(checkout.RegistryConfig{
		Settings: checkout.Settings{
			Countdown:     cfg.Checkout.Countdown,
			Tick:          cfg.Checkout.Tick,
			PollInterval:  cfg.Checkout.PollInterval,
			CopyIndicator: cfg.Checkout.CopyIndicator,
			CallTimeout:   cfg.BackendTimeout,
			ABAName:       cfg.ABA.Name,
			ABANumber:     cfg.ABA.Number,
		},
		Pending: pending,
		Events:  events,
		Log:     log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go registry.Run(ctx, cfg.Checkout.SweepEvery, cfg.Checkout.IdleAfter)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.Use(middleware.Session(middleware.SessionConfig{
		Skipper: func(c echo.Context) bool { return c.Path() == "/metrics" || c.Path() == "/healthz" },
		Cookie:  cfg.SessionCookie,
		Secure:  cfg.CookieSecure,
	}, sessions, log))

	loc := cfg.Location()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log)

	router.RegisterRoutes(e, &handler.NoticeHandler{Outbox: outbox, Log: log})
	router.RegisterAuth(e, &handler.AuthHandler{Registry: registry, Outbox: outbox, Log: log}, limiter)
	router.RegisterPublic(e, &handler.PublicHandler{Client: client, Loc: loc, Now: time.Now, Log: log}, cache)
	router.RegisterCustomer(e,
		&handler.CheckoutHandler{
			Registry: registry,
			Picks:    seats.Picks{Store: scoped},
			Pending:  pending,
			Outbox:   outbox,
			Loc:      loc,
			Log:      log,
		},
		&handler.CustomerHandler{Outbox: outbox, Loc: loc, Now: time.Now, Log: log},
		limiter,
	)
	router.RegisterAdmin(e, &handler.AdminHandler{Outbox: outbox, Log: log})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("backend", cfg.BackendURL))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	registry.CloseAll()
}
