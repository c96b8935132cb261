package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/splitx/internal/auth"
	"github.com/mmynk/splitx/internal/config"
	"github.com/mmynk/splitx/internal/metrics"
	"github.com/mmynk/splitx/internal/middleware"
	"github.com/mmynk/splitx/internal/server"
	"github.com/mmynk/splitx/internal/service"
	"github.com/mmynk/splitx/internal/storage/sqlstore"
	"github.com/mmynk/splitx/pkg/api"
	"github.com/mmynk/splitx/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.Setup(os.Stderr, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if cfg.UsingDevSecret() {
		logger.Warn("Using the built-in development JWT secret; set JWT_SECRET outside development")
	}

	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	services := server.Services{
		Auth:        service.NewAuthService(authenticator, jwtManager, store, logger),
		Groups:      service.NewGroupService(store, logger),
		Expenses:    service.NewExpenseService(store, logger),
		Balances:    service.NewBalanceService(store, m, logger),
		Settlements: service.NewSettlementService(store, m, logger),
	}

	staticDir, err := filepath.Abs(cfg.Server.StaticPath)
	if err != nil {
		return err
	}
	logger.Info("Serving static files", "path", staticDir)

	handler := server.New(services, server.Options{
		StaticPath: staticDir,
		Interceptors: []connect.Interceptor{
			m.Interceptor(),
			middleware.RequireAuth(jwtManager, api.PublicProcedures),
			middleware.LoggingInterceptor(logger),
		},
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Ping:    store.Ping,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
