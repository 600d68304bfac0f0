package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portal-estiba/admin-api/internal/config"
	"github.com/portal-estiba/admin-api/internal/ingest"
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

	log = logger.WithService(log, "ingest-service")
	log.Info("Starting page-view ingest service",
		zap.String("environment", cfg.Environment),
		zap.String("store_backend", cfg.Store),
		zap.String("consumer_group", cfg.Kafka.GroupID),
	)

	var writer store.RowSource

	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.New(postgres.Config{
			DSN:             cfg.Postgres.PostgresDSN(),
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer db.Close()
		writer = store.NewPostgres(db.DB, log)
	default:
		client, err := supabase.New(supabase.Config{
			URL:     cfg.Supabase.URL,
			AnonKey: cfg.Supabase.AnonKey,
			Timeout: cfg.Supabase.Timeout,
		}, log)
		if err != nil {
			log.Fatal("Failed to create Supabase client", zap.Error(err))
		}
		writer = store.NewPostgREST(client, log)
	}

	ingestService := ingest.NewService(nil, writer, log)

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:           cfg.Kafka.Brokers,
		Topics:            []string{cfg.Kafka.Topic},
		GroupID:           cfg.Kafka.GroupID,
		AutoCommit:        true,
		CommitInterval:    1 * time.Second,
		SessionTimeout:    10 * time.Second,
		RebalanceStrategy: "sticky",
	}, ingestService.CreateMessageHandler(), log)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error("Consumer error", zap.Error(err))
		}
	}()

	<-consumer.WaitReady()
	log.Info("Kafka consumer is ready and consuming page views")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")
	cancel()

	log.Info("Ingest service stopped")
}
