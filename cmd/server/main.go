package main

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"propcalc/server/config"
	"propcalc/server/internal/api"
	"propcalc/server/internal/database"
	"propcalc/server/internal/fetcher"
	"propcalc/server/internal/geocoding"
	"propcalc/server/internal/geometry"
	"propcalc/server/internal/ingest"
	"propcalc/server/internal/notify"
	"propcalc/server/internal/processor"
	"propcalc/server/internal/quality"
	"propcalc/server/internal/queue"
	"propcalc/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// .env is optional; environment variables win either way
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := config.LoadSourceCatalog(); err != nil {
		logger.WithError(err).Fatal("Failed to load source catalog")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}
	logger.Infof("Using database at: %s", cfg.Database.Path)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// The batch insert path writes through gorm
	gormDB, err := database.OpenGorm(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open gorm database")
	}

	// Area boundaries are optional; ingestion works without coordinates
	boundaries := geometry.NewAreaIndex(logger)
	boundaryPath := filepath.Join("config", "area_boundaries.geojson")
	if err := boundaries.LoadFile(boundaryPath); err != nil {
		logger.WithError(err).Warn("Area boundaries not loaded, skipping coordinate enrichment")
	}

	// Assemble the ingestion pipeline
	csvFetcher := fetcher.NewFetcher(cfg, logger)
	writer := processor.NewGormWriter(gormDB)
	inserter := processor.NewInserter(writer, cfg.BatchProcessing.BatchSize, cfg.BatchProcessing.RowFallback, logger)
	scorer := quality.NewScorer(quality.Weights{
		Completeness: cfg.Quality.CompletenessWeight,
		Consistency:  cfg.Quality.ConsistencyWeight,
		Validity:     cfg.Quality.ValidityWeight,
	}, cfg.Quality.ChunkSize, logger)
	improver := quality.NewImprover(logger)
	pipeline := ingest.NewPipeline(csvFetcher, db, inserter, scorer, improver, boundaries, logger)
	notifier := notify.NewService(logger, cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	manager := ingest.NewManager(pipeline, db, notifier, cfg, logger)

	// Manually imported batches arrive over the API and drain asynchronously
	txQueue := queue.NewTransactionQueue(100, logger)
	txQueue.Start()
	defer txQueue.Close()

	batchProcessor := processor.NewBatchProcessor(gormDB, txQueue, cfg, logger)
	batchProcessor.Start()
	defer batchProcessor.Stop()

	// Start scheduled ingestion runs
	runScheduler := scheduler.NewScheduler(manager, cfg, logger)
	runScheduler.Start()
	defer runScheduler.Stop()

	// Backfill coordinates for rows the boundary centroids could not cover
	geocoder := geocoding.NewGeocoder(logger, "cache")
	go func() {
		if err := db.UpdateMissingCoordinates(geocoder); err != nil {
			logger.WithError(err).Warn("Geocoding backfill failed")
		}
	}()

	// Initialize router
	router := gin.Default()
	api.SetupRoutes(router, db, manager, txQueue, logger)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
