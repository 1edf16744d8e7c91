package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crem-edu/qcm-importer/internal/cache"
	"github.com/crem-edu/qcm-importer/internal/config"
	"github.com/crem-edu/qcm-importer/internal/events"
	"github.com/crem-edu/qcm-importer/internal/handlers"
	"github.com/crem-edu/qcm-importer/internal/repositories"
	"github.com/crem-edu/qcm-importer/internal/services"
	"github.com/crem-edu/qcm-importer/internal/utils"
	"github.com/crem-edu/qcm-importer/internal/validator"
	"github.com/crem-edu/qcm-importer/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	// Database, cache and broker are all optional. The converter works
	// standalone; each missing backend just disables its feature.
	jobs := repositories.ImportJobRepository(repositories.NopImportJobRepository{})
	if cfg.DatabaseURL != "" {
		db, dbErr := pkg.InitDatabase(cfg)
		if dbErr != nil {
			logger.Error("Failed to connect to database", "error", dbErr)
			os.Exit(1)
		}
		if migErr := repositories.Migrate(db); migErr != nil {
			logger.Error("Failed to run migrations", "error", migErr)
			os.Exit(1)
		}
		jobs = repositories.NewImportJobRepository(db)
		logger.Info("Import job persistence enabled")
	} else {
		logger.Warn("DATABASE_URL not set, import history disabled")
	}

	cacheService := cache.CacheService(cache.NopCache{})
	if cfg.RedisURL != "" {
		redisClient, redisErr := pkg.NewRedisClient(cfg)
		if redisErr != nil {
			logger.Error("Failed to connect to Redis", "error", redisErr)
			os.Exit(1)
		}
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, logger)
		logger.Info("Moodle listing cache enabled")
	} else {
		logger.Warn("REDIS_URL not set, Moodle listing cache disabled")
	}

	publisher := events.EventPublisher(events.NopEventPublisher{})
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: cfg.KafkaBrokers,
			TopicName:    cfg.KafkaTopic,
			Logger:       utils.ToSlogLogger(logger),
		})
		if pubErr != nil {
			logger.Error("Failed to create Kafka publisher", "error", pubErr)
			os.Exit(1)
		}
		publisher = kafkaPublisher
		logger.Info("Import event publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Warn("KAFKA_BROKERS not set, import events disabled")
	}
	defer publisher.Close()

	spreadsheets := services.NewSpreadsheetService(logger)
	documents := services.NewDocumentService(logger)
	generator := services.NewXMLService(logger)
	attachments := services.NewAttachmentService(logger)
	licences := services.NewLicenceService(logger)
	accounts := services.NewAccountsService(logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(
		cfg,
		spreadsheets,
		documents,
		generator,
		attachments,
		licences,
		accounts,
		jobs,
		cacheService,
		publisher,
		validator.New(),
		logger,
	)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("Server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(ctx); shutdownErr != nil {
		logger.Error("Forced shutdown", "error", shutdownErr)
	}
	logger.Info("Server stopped")
}
