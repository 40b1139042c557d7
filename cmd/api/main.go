// Package main is the entry point for the dive logbook web server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pkordes/dive-logbook/internal/config"
	"github.com/pkordes/dive-logbook/internal/divesites"
	"github.com/pkordes/dive-logbook/internal/geocode"
	"github.com/pkordes/dive-logbook/internal/handler"
	"github.com/pkordes/dive-logbook/internal/mail"
	"github.com/pkordes/dive-logbook/internal/middleware"
	"github.com/pkordes/dive-logbook/internal/repo"
	"github.com/pkordes/dive-logbook/internal/service"
	"github.com/pkordes/dive-logbook/internal/session"
	"github.com/pkordes/dive-logbook/internal/token"
	"github.com/pkordes/dive-logbook/migrations"
)

// maxBodyBytes caps request bodies. Forms and the JSON endpoints are small.
const maxBodyBytes = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	// A missing .env is normal in production, where the environment is set
	// by the platform.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established", "env", cfg.Env)

	if cfg.MigrateOnStart {
		sqlDB := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(context.Background(), sqlDB)
		_ = sqlDB.Close()
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", applied)
	}

	// --- Services ---------------------------------------------------------
	users := repo.NewUserRepo(pool)
	sites := repo.NewDiveSiteRepo(pool)

	svc := handler.Services{
		Users: service.NewUserService(users, cfg.BcryptCost),
		Confirmations: service.NewConfirmationService(
			users,
			token.NewConfirmer(cfg.SecretKey, cfg.PasswordSalt),
			mail.New(cfg.Mail, logger),
			cfg.BaseURL,
		),
		Sites: service.NewSiteService(
			sites,
			divesites.New(cfg.DiveSitesURL, cfg.UpstreamTimeout),
			geocode.New(cfg.GeocoderURL, cfg.UpstreamTimeout),
		),
		BucketList: service.NewBucketListService(repo.NewBucketListRepo(pool), sites),
		Journal:    service.NewJournalService(repo.NewJournalRepo(pool), sites),
	}

	server := handler.NewServer(svc, session.NewManager(cfg.SecretKey, cfg.SessionLifetime, cfg.SecureCookies), logger, handler.Options{
		CSRF:           cfg.CSRFEnabled,
		Debug:          cfg.Debug,
		AuthRateLimit:  10,
		AuthRateWindow: time.Minute,
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Metrics →
	// CORS → MaxBodySize. Panics are recovered inside server.Routes so they
	// render the error page.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(middleware.NewMetrics())
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxBodyBytes))
	r.Mount("/", server.Routes())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout leaves room for a site lookup that calls both upstreams.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
