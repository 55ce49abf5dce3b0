package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/draftforge/fastauction/internal/auctionsvc"
	"github.com/draftforge/fastauction/internal/clock"
	"github.com/draftforge/fastauction/internal/config"
	"github.com/draftforge/fastauction/internal/eventbus"
	"github.com/draftforge/fastauction/internal/finalizer"
	"github.com/draftforge/fastauction/internal/handler"
	"github.com/draftforge/fastauction/internal/middleware"
	"github.com/draftforge/fastauction/internal/monitor"
	"github.com/draftforge/fastauction/internal/selector"
	"github.com/draftforge/fastauction/internal/store"
	"github.com/draftforge/fastauction/internal/tracing"
	"github.com/draftforge/fastauction/internal/txrunner"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: 0.1,
		}); err != nil {
			logger.Error("failed to init sentry", slog.String("error", err.Error()))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Initialize tracing
	ctx := context.Background()
	tracingShutdown, err := tracing.Init(ctx, "fastauction", cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		logger.Warn("failed to init tracing", slog.String("error", err.Error()))
	} else {
		defer tracingShutdown(ctx)
	}

	// Connect to database
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to parse database config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	dbConfig.MaxConns = int32(cfg.DBMaxConns)
	dbConfig.MinConns = int32(cfg.DBMinConns)
	dbConfig.MaxConnLifetime = cfg.DBMaxConnLife

	db, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		logger.Error("failed to ping database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("database_connected")

	// Event fan-out (replaces the source's single-auction realtime.Broker)
	bus := eventbus.New(logger)
	bus.Start()
	defer bus.Stop()

	// Persistence seams and the lock-aware transaction runner
	drafts := store.NewPostgresDraftStore(db)
	lots := store.NewPostgresLotStore(db)
	rosters := store.NewPostgresRosterStore(db)
	runner := txrunner.New(db)
	playerSelector := selector.NewPostgresPlayerSelector(db)
	final := finalizer.NewRosterMaterializer()

	engine := auctionsvc.New(
		runner, drafts, lots, rosters,
		clock.Real{}, bus, final, playerSelector, logger,
	)

	// Deadline monitor drives auto-nomination and settlement off the
	// same engine the HTTP handlers call directly.
	mon := monitor.New(drafts, lots, engine, logger, monitor.WithInterval(cfg.MonitorScanInterval))
	mon.Start()
	defer mon.Stop()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	auctionHandler := handler.NewAuctionHandler(engine, logger)
	streamHandler := handler.NewStreamHandler(bus, logger, cfg.SSEKeepaliveInterval)
	debugHandler := handler.NewDebugHandler(mon, bus, logger)

	// Initialize auth middleware
	sessionAuth := middleware.NewSessionAuth(logger, cfg.SessionJWKSURL, cfg.SessionSecretKey, db)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logging(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/live", healthHandler.Live)

	// Metrics endpoint
	r.Handle(cfg.MetricsPath, promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sessionAuth.Middleware)

			r.Route("/drafts/{draftId}", func(r chi.Router) {
				r.Get("/state", auctionHandler.GetState)
				r.Get("/nominator", auctionHandler.GetNominator)
				r.Get("/stream", streamHandler.StreamDraft)

				r.Post("/nominate", auctionHandler.Nominate)
				r.Post("/advance", auctionHandler.Advance)
				r.Post("/force-advance", auctionHandler.ForceAdvance)
				r.Post("/lots/{lotId}/bid", auctionHandler.SetMaxBid)
			})
		})
	})

	// Debug endpoints (DEBUG_ENDPOINTS_ENABLED, on by default in every environment)
	if cfg.DebugEndpointsEnabled {
		r.Route("/debug", func(r chi.Router) {
			r.Get("/monitor", debugHandler.MonitorStats)
			r.Get("/eventbus", debugHandler.EventBusStats)
			r.Get("/stats", debugHandler.AllStats)
		})
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server_starting",
			slog.Int("port", cfg.Port),
			slog.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server_error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server_shutting_down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", slog.String("error", err.Error()))
	}

	logger.Info("server_stopped")
}
