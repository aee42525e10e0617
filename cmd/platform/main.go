package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/coviddx/platform/internal/account"
	"github.com/coviddx/platform/internal/audit"
	"github.com/coviddx/platform/internal/clinical"
	"github.com/coviddx/platform/internal/scan"
	"github.com/coviddx/platform/internal/shared/auth"
	"github.com/coviddx/platform/internal/shared/config"
	"github.com/coviddx/platform/internal/shared/database"
	"github.com/coviddx/platform/internal/shared/events"
	"github.com/coviddx/platform/internal/shared/logging"
	"github.com/coviddx/platform/internal/shared/metrics"
	secmiddleware "github.com/coviddx/platform/internal/shared/middleware"
	"github.com/coviddx/platform/internal/stats"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Server.Env)
	app := &App{Config: cfg, Logger: logger}

	// Database (optional - account and scan routes need it)
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("database not available, running without accounts and scans")
	} else {
		app.DB = db
		defer db.Close()

		if err := database.Migrate(ctx, db.Pool); err != nil {
			logger.Warn().Err(err).Msg("migration failed")
		}
	}

	// Event log (optional - audit trail needs it)
	bus, err := events.NewBus(ctx, cfg.EventLog)
	if err != nil {
		logger.Warn().Err(err).Msg("event log not available, running without audit trail")
	} else {
		app.Bus = bus
		defer bus.Close()
		logger.Info().Msg("event log connected")
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.MaxBody(cfg.Upload.MaxSizeBytes))
	r.Use(metrics.Middleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler())
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/", infoHandler)

	// Audit chain, shared by every handler that records actions.
	var auditLog audit.Log
	if app.Bus != nil {
		recorder := audit.NewRecorder(app.Bus.Client())
		if err := recorder.Initialize(ctx); err != nil {
			logger.Warn().Err(err).Msg("audit initialization failed")
		}
		auditLog = recorder
	}

	reportAssembler := clinical.NewAssembler(cfg.Clinical, logger)
	clinicalHandler := clinical.NewHandler(reportAssembler, auditLog)

	statsClient := stats.NewClient(cfg.Stats)
	statsHandler := stats.NewHandler(statsClient)

	r.Route("/api/v1", func(r chi.Router) {
		// Public statistics feed; carries no patient data.
		r.Mount("/stats", statsHandler.Routes())

		// Clinical reports and the audit trail do not touch Postgres,
		// so they stay mounted when the database is down.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth))

			r.Mount("/reports/clinical", clinicalHandler.Routes())

			if auditLog != nil {
				auditHandler := audit.NewHandler(auditLog)
				r.With(auth.RequireAdmin).Mount("/audit", auditHandler.Routes())
			}
		})

		// Registration and login, rate limited per IP.
		if app.DB != nil {
			accountRepo := account.NewRepository(app.DB.Pool)
			accountHandler := account.NewHandler(accountRepo, app.Bus, auditLog, cfg.Auth)

			if admin, err := account.EnsureAdmin(ctx, accountRepo, cfg.Admin); err != nil {
				logger.Warn().Err(err).Msg("admin bootstrap failed")
			} else if admin != nil {
				logger.Info().Str("login_id", admin.LoginID).Msg("administrator account created")
			}

			limiter := secmiddleware.NewIPRateLimiter(5, 10)
			r.With(limiter.Middleware).Mount("/auth", accountHandler.PublicRoutes())

			// Authenticated routes
			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(cfg.Auth))

				scanStorage, err := scan.NewStorage(cfg.Upload.MediaDir)
				if err != nil {
					logger.Error().Err(err).Msg("scan storage unavailable")
				} else {
					scanRepo := scan.NewRepository(app.DB.Pool)
					predictor := scan.NewPredictor(cfg.Predictor)
					scanHandler := scan.NewHandler(scanRepo, scanStorage, predictor, app.Bus, auditLog)
					r.Mount("/scans", scanHandler.Routes())
				}

				r.With(auth.RequireAdmin).Mount("/accounts", accountHandler.AdminRoutes())
			})
		}
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info().Msg("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		close(done)
	}()

	logger.Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Str("clinical_data", cfg.Clinical.DataDir).
		Str("media_dir", cfg.Upload.MediaDir).
		Msg("covid diagnosis platform listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}

	<-done
	logger.Info().Msg("server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "COVID-19 Diagnosis Platform",
		"version": "0.1.0",
		"docs":    "/api/v1",
	})
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}
		ready := true

		if app.DB != nil {
			if err := app.DB.Health(r.Context()); err != nil {
				checks["database"] = "not ready: " + err.Error()
				ready = false
			} else {
				checks["database"] = "ready"
			}
		} else {
			checks["database"] = "not configured"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["eventlog"] = "not ready: " + err.Error()
				ready = false
			} else {
				checks["eventlog"] = "ready"
			}
		} else {
			checks["eventlog"] = "not configured"
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(checks)
	}
}
