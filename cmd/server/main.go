package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qolzam/natours/internal/cache"
	"github.com/qolzam/natours/internal/database/factory"
	"github.com/qolzam/natours/internal/middleware/metrics"
	"github.com/qolzam/natours/internal/pkg/log"
	platformconfig "github.com/qolzam/natours/internal/platform/config"
	platformemail "github.com/qolzam/natours/internal/platform/email"
	"github.com/qolzam/natours/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load platform config: %w", err)
	}
	log.SetVerbose(cfg.IsDevelopment())

	ctx := context.Background()
	backend, err := factory.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			log.Warn("closing %s backend: %v", backend.Type, err)
		}
	}()
	log.Info("DB connection successful (%s)", backend.Type)

	collections, err := server.OpenCollections(backend)
	if err != nil {
		return err
	}
	if err := collections.EnsureIndexes(ctx); err != nil {
		return err
	}

	var cacheService *cache.GenericCacheService
	if cfg.Cache.Enabled {
		backendCache, err := cache.New(cfg.Cache)
		if err != nil {
			log.Warn("cache disabled: %v", err)
		} else {
			cacheService = cache.NewGenericCacheService(backendCache, cfg.Cache)
			defer cacheService.Close()
		}
	}

	sender, err := platformemail.NewSender(cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to create email sender: %w", err)
	}

	var m *metrics.Metrics
	if cfg.App.MetricsEnabled {
		m = metrics.New()
	}

	app := server.New(server.NewDeps(server.Wiring{
		Config:      cfg,
		Collections: collections,
		Cache:       cacheService,
		EmailSender: sender,
		Metrics:     m,
	}))

	listenErr := make(chan error, 1)
	go func() {
		log.Info("App running on port %d (%s)", cfg.App.Port, cfg.App.Env)
		listenErr <- app.Listen(fmt.Sprintf(":%d", cfg.App.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("%s received. Shutting down gracefully", sig)
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Process terminated")
	return nil
}
