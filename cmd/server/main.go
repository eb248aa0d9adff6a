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
	sentryhttp "github.com/getsentry/sentry-go/http"

	specpkg "github.com/solarview/solarview/api"
	"github.com/solarview/solarview/internal/account"
	"github.com/solarview/solarview/internal/api"
	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/catalog"
	"github.com/solarview/solarview/internal/config"
	"github.com/solarview/solarview/internal/pvgis"
	"github.com/solarview/solarview/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
			Release:     cfg.Version,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := store.Migrate(ctx, st); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	authService := auth.NewService(st.Users(), cfg.BcryptCost)
	accounts := account.NewManager(st, authService)

	if cfg.BootstrapAdmin() {
		admin, created, err := accounts.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrapping admin: %w", err)
		}
		if admin.ID != 0 {
			slog.Info("admin account ensured", "email", admin.Email, "created", created)
		}
	}

	router := api.NewRouter(api.RouterDeps{
		Store:       st,
		AuthService: authService,
		Accounts:    accounts,
		Catalog:     catalog.NewManager(st),
		Estimator:   pvgis.NewClient(cfg.PVGISURL, cfg.PVGISTimeout),
		Version:     cfg.Version,
		OpenAPISpec: specpkg.OpenAPISpec,
	})

	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           sentryHandler.Handle(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting solarview server", "port", cfg.Port, "version", cfg.Version, "backend", st.Backend())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
