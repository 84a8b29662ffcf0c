package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/oura-data-handler/internal/api/http"
	"github.com/i474232898/oura-data-handler/internal/handler"
	"github.com/i474232898/oura-data-handler/internal/observability"
	"github.com/i474232898/oura-data-handler/internal/ring"
	"github.com/i474232898/oura-data-handler/internal/ring/providers"
	"github.com/i474232898/oura-data-handler/internal/scheduler"
	"github.com/i474232898/oura-data-handler/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the periodic export job",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return serve()
	},
}

func serve() error {
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	fetcher := providers.NewOuraProvider(httpClient, cfg.APIAddress, cfg.AccessToken)

	files, err := store.NewFileStore(cfg.DataPaths, "")
	if err != nil {
		return err
	}

	// Periodic exports land in SYNC_DIR, or in memory when it is unset. Either
	// way the csv source falls back to them for types without a configured path.
	var (
		syncSaver  ring.Saver
		syncLoader ring.Loader
	)
	if cfg.SyncDir != "" {
		syncFiles, err := store.NewFileStore(store.DirPaths(cfg.SyncDir, cfg.SyncTypes), cfg.SyncDir)
		if err != nil {
			return err
		}
		syncSaver, syncLoader = syncFiles, syncFiles
	} else {
		mem := store.NewMemoryStore(0)
		syncSaver, syncLoader = mem, mem
	}

	h := handler.New(handler.Collaborators{
		Fetcher:  fetcher,
		Loader:   store.Fallback{files, syncLoader},
		Saver:    syncSaver,
		Recorder: metrics,
	}, cfg.Duplicates)

	// Scheduler that periodically exports recent API data.
	sched := scheduler.New(cfg.SyncTypes, cfg.SyncInterval, cfg.SyncLookback, h)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "oura-data-handler",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "oura-data-handler",
		})
	})

	httpapi.RegisterRoutes(app, h, httpapi.Config{
		AnomalyWindow: cfg.AnomalyWindow,
		Metrics:       metrics.Handler(),
	})

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}
