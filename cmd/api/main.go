// Package main is the entry point for the CourseHub API server.
//
// It loads configuration, connects the PostgreSQL repositories, builds the
// external client registry (Stripe, Clerk), wires the webhook and read-side
// handlers onto the core HTTP chassis, and serves until interrupted.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"coursehub/internal/api/handlers"
	"coursehub/internal/config"
	"coursehub/internal/core"
	"coursehub/internal/db"
	"coursehub/internal/external"
	"coursehub/internal/identity"
	"coursehub/internal/metrics"
	"coursehub/internal/settlement"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("coursehub API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	// Database pool and repositories.
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(startupCtx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	repos := db.NewRegistry(pool)

	// Metrics.
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// External clients (stubs in local/test mode).
	clients := external.NewClientRegistry(cfg, logger)

	// Domain services.
	identitySvc := identity.NewService(repos, logger.With("component", "identity"))
	settler := settlement.NewEngine(repos, collector, logger.With("component", "settlement"))

	// HTTP chassis.
	srv, err := core.NewServer(cfg, repos, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = collector
	srv.MetricsHandler = metrics.Handler(registry)
	srv.HealthProbes = append(srv.HealthProbes, db.NewProbe(pool))

	// Webhook endpoints (public, outside /v1).
	clerkWebhook := handlers.NewClerkWebhookHandler(
		clients.IdentityVerifier,
		identitySvc,
		cfg.Identity.ClerkWebhookSecret.Unmask(),
		collector,
		logger.With("handler", "clerk_webhook"),
	)
	stripeWebhook := handlers.NewStripeWebhookHandler(
		clients.PaymentVerifier,
		clients.Payments,
		settler,
		cfg.Billing.StripeWebhookSecret.Unmask(),
		collector,
		logger.With("handler", "stripe_webhook"),
	)
	srv.WebhookRouteRegistrars = append(srv.WebhookRouteRegistrars,
		clerkWebhook.RegisterRoutes,
		stripeWebhook.RegisterRoutes,
	)

	// Read-side and checkout endpoints under /v1.
	courseHandler := handlers.NewCourseHandler(repos.Courses(), logger)
	userHandler := handlers.NewUserHandler(repos.Users(), logger)
	purchaseHandler := handlers.NewPurchaseHandler(
		repos.Purchases(),
		repos.Users(),
		repos.Courses(),
		clients.Payments,
		cfg.Checkout,
		srv.Validator,
		logger,
	)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, func(r chi.Router) {
		courseHandler.RegisterRoutes(r)
		userHandler.RegisterRoutes(r)
		purchaseHandler.RegisterRoutes(r)
	})

	srv.MountRoutes()

	return serve(srv, cfg, logger)
}

// serve runs the HTTP server until a shutdown signal or server error, then
// drains in-flight requests and releases server resources.
func serve(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}
