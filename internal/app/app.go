package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/config"
	"github.com/confradar/confradar/internal/database"
	"github.com/confradar/confradar/internal/handlers"
	"github.com/confradar/confradar/internal/messaging"
	"github.com/confradar/confradar/internal/middleware"
	"github.com/confradar/confradar/internal/services"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine

	consumer       *messaging.CatalogUpdateConsumer
	consumerCancel context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	services, err := services.New(cfg, app.logger, db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = services

	app.handlers = handlers.New(app.logger, services)

	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err := messaging.NewCatalogUpdateConsumer(cfg, services.Catalog, app.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize catalog consumer: %w", err)
		}
		app.consumer = consumer

		ctx, cancel := context.WithCancel(context.Background())
		app.consumerCancel = cancel
		go func() {
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				app.logger.WithError(err).Error("Catalog update consumer stopped")
			}
		}()
	}

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.consumerCancel != nil {
		a.consumerCancel()
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.WithError(err).Error("Error closing catalog consumer")
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	router.GET("/health", a.handlers.Health.Check)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.Use(middleware.RateLimit(a.services.RateLimit, a.logger))

		api.POST("/query", a.handlers.Query.Query)

		conferences := api.Group("/conferences")
		{
			conferences.GET("", a.handlers.Conference.List)
			conferences.GET("/:id", a.handlers.Conference.Get)
		}
	}

	a.router = router
}
