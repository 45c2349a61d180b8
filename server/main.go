package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/masscrop/internal/config"
	"github.com/phambaophuc/masscrop/internal/http/handlers"
	"github.com/phambaophuc/masscrop/internal/http/routes"
	"github.com/phambaophuc/masscrop/internal/services/batch"
	"github.com/phambaophuc/masscrop/internal/services/events"
	"github.com/phambaophuc/masscrop/internal/services/processor"
	"github.com/phambaophuc/masscrop/internal/services/session"
	"github.com/phambaophuc/masscrop/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize services
	imageProcessor := processor.NewImageProcessor()

	storageService, err := storage.NewStorageService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer storageService.Close()

	var publisher *events.Publisher
	notifier := events.Nop()
	if cfg.RabbitMQ.URL != "" {
		publisher, err = events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			// Continue without status events
			logger.Warn("Failed to initialize event publisher", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
			notifier = publisher
		}
	}

	var cache batch.Cache
	if storageService.CacheEnabled() {
		cache = storageService
	}

	store := session.NewStore(storage.NewBlobStore(), logger, session.Options{
		MaxFiles: cfg.Storage.MaxFiles,
		Inspect:  imageProcessor.ImageInfo,
	})
	coordinator := batch.NewCoordinator(store, imageProcessor, cache, notifier, logger)

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(store, coordinator, imageProcessor, storageService, publisher, logger, cfg)

	router := routes.NewRouter(sessionHandler, logger, int64(cfg.Storage.MaxFiles)*cfg.Storage.MaxFileSize)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepSessions(sweepCtx, store, cfg.Session, logger)

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// sweepSessions drops idle sessions until ctx is done.
func sweepSessions(ctx context.Context, store *session.Store, cfg config.SessionConfig, logger *zap.Logger) {
	if cfg.TTL <= 0 || cfg.SweepInterval <= 0 {
		logger.Info("Session sweep disabled")
		return
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep(cfg.TTL)
		}
	}
}
