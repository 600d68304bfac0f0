package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/portal-estiba/admin-api/internal/analytics"
	"github.com/portal-estiba/admin-api/internal/config"
	"github.com/portal-estiba/admin-api/internal/ingest"
	"github.com/portal-estiba/admin-api/internal/roster"
	"github.com/portal-estiba/admin-api/internal/store"
	"github.com/portal-estiba/admin-api/pkg/kafka"
	"github.com/portal-estiba/admin-api/pkg/logger"
	"github.com/portal-estiba/admin-api/pkg/postgres"
	"github.com/portal-estiba/admin-api/pkg/supabase"
	"go.uber.org/zap"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log = logger.WithService(log, "admin-api")
	log.Info("Starting Portal Estiba admin API",
		zap.String("environment", cfg.Environment),
		zap.String("store_backend", cfg.Store),
	)

	var source store.RowSource
	var db *postgres.DB

	switch cfg.Store {
	case config.StorePostgres:
		db, err = postgres.New(postgres.Config{
			DSN:             cfg.Postgres.PostgresDSN(),
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer db.Close()
		source = store.NewPostgres(db.DB, log)
	default:
		client, err := supabase.New(supabase.Config{
			URL:     cfg.Supabase.URL,
			AnonKey: cfg.Supabase.AnonKey,
			Timeout: cfg.Supabase.Timeout,
		}, log)
		if err != nil {
			log.Fatal("Failed to create Supabase client", zap.Error(err))
		}
		source = store.NewPostgREST(client, log)
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:          cfg.Kafka.Brokers,
		Topic:            cfg.Kafka.Topic,
		Retries:          cfg.Kafka.ProducerRetries,
		Timeout:          cfg.Kafka.ProducerTimeout,
		RequiredAcks:     cfg.Kafka.RequiredAcks,
		Compression:      cfg.Kafka.CompressionType,
		IdempotentWrites: cfg.Kafka.IdempotentWrites,
		MaxMessageBytes:  cfg.Kafka.MaxMessageBytes,
	}, log)
	if err != nil {
		log.Fatal("Failed to create Kafka producer", zap.Error(err))
	}
	defer producer.Close()

	analyticsService := analytics.NewService(source, cfg.PageSize, cfg.MaxEventRows, log)
	analyticsHandler := analytics.NewHandler(analyticsService, log)

	rosterService := roster.NewService(source, cfg.PageSize, log)
	rosterHandler := roster.NewHandler(rosterService, log)

	ingestService := ingest.NewService(producer, nil, log)
	ingestHandler := ingest.NewHandler(ingestService, log)

	app := fiber.New(fiber.Config{
		AppName:      "portal-estiba-admin-api",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if db != nil {
			if err := db.HealthCheck(c.Context()); err != nil {
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "degraded",
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Get("/dashboard", analyticsHandler.GetDashboard)
	api.Get("/users", rosterHandler.ListUsers)
	api.Get("/subscriptions", rosterHandler.ListSubscriptions)
	api.Post("/track", ingestHandler.TrackPageView)

	go func() {
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Fatal("HTTP server stopped", zap.Error(err))
		}
	}()

	log.Info("HTTP server listening", zap.String("port", cfg.HTTPPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	log.Info("Admin API stopped")
}
