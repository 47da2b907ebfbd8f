package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/donor-registry/internal/api/http"
	"github.com/spec-kit/donor-registry/internal/api/http/handlers"
	"github.com/spec-kit/donor-registry/internal/bootstrap"
	"github.com/spec-kit/donor-registry/internal/config"
	"github.com/spec-kit/donor-registry/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := bootstrap.Open(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to open record store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer registry.Close()

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Storage.Backend, registry.Users, metrics),
		Users:  handlers.NewUsersHandler(registry.Registration, registry.Directory),
		Donors: handlers.NewDonorsHandler(registry.Directory),
		Import: handlers.NewImportHandler(registry.Import),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
