package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oskarh/feedgate/internal/api"
	"github.com/oskarh/feedgate/internal/catalog"
	"github.com/oskarh/feedgate/internal/config"
	"github.com/oskarh/feedgate/internal/feed"
	"github.com/oskarh/feedgate/internal/logger"
	"github.com/oskarh/feedgate/internal/mapping"
	"github.com/oskarh/feedgate/internal/repository"
	"github.com/oskarh/feedgate/internal/service"
	"github.com/oskarh/feedgate/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewFromEnv(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	jobRepo := repository.NewImportJobRepository(db)

	// Initialize object storage for s3:// feed sources (optional)
	var objectStorage storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
		})
		if err != nil {
			logger.Fatal("Failed to initialize object storage: %v", err)
		}
		objectStorage = s3Storage
	}

	// Initialize feed fetcher
	fetcher := feed.NewFetcher(&feed.FetcherConfig{
		Timeout:    cfg.Feed.FetchTimeout,
		RetryCount: cfg.Feed.FetchRetryCount,
	}, objectStorage)

	// Initialize the field catalog and column mapper
	fieldCatalog := catalog.Default()
	mapper := mapping.NewMapper(fieldCatalog, mapping.NewStaticPresets(cfg.Import.MappingPresets))

	// Initialize import service
	importService := service.NewImportService(
		productRepo,
		jobRepo,
		fieldCatalog,
		mapper,
		appLogger,
		&service.ImportConfig{
			BatchSize:         cfg.Import.BatchSize,
			MaxKeyLookup:      cfg.Import.MaxKeyLookup,
			MaxNameLookup:     cfg.Import.MaxNameLookup,
			MaxReportedErrors: cfg.Import.MaxReportedErrors,
		},
	)

	// Setup router
	router := api.SetupRouter(api.RouterConfig{
		Mode:            cfg.Server.Mode,
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}, db, importService, jobRepo, fetcher)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting API server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
