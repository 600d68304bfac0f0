package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type KafkaProducer interface {
	SendMessage(ctx context.Context, key string, value any) error
}

// EventWriter persists one page view into the row store.
type EventWriter interface {
	InsertEvent(ctx context.Context, page, chapa string, ts time.Time) error
}

type Service struct {
	producer KafkaProducer
	writer   EventWriter
	logger   *zap.Logger
}

// NewService builds the ingest service. The API side passes a producer
// and no writer; the consumer side passes a writer and no producer.
func NewService(producer KafkaProducer, writer EventWriter, logger *zap.Logger) *Service {
	return &Service{
		producer: producer,
		writer:   writer,
		logger:   logger,
	}
}

// TrackPageView validates and publishes one view to the page-view
// topic.
func (s *Service) TrackPageView(ctx context.Context, view *PageView) error {
	if err := view.Validate(); err != nil {
		s.logger.Warn("Rejected page view",
			zap.Error(err),
			zap.String("page", view.Page),
		)
		return fmt.Errorf("invalid page view: %w", err)
	}

	if err := s.producer.SendMessage(ctx, view.PartitionKey(), view); err != nil {
		s.logger.Error("Failed to publish page view",
			zap.Error(err),
			zap.String("view_id", view.ID),
		)
		return fmt.Errorf("failed to publish page view: %w", err)
	}

	s.logger.Debug("Page view published",
		zap.String("view_id", view.ID),
		zap.String("page", view.Page),
	)
	return nil
}

// CreateMessageHandler returns the consumer-side handler that decodes a
// Kafka message and writes the row. Malformed messages are skipped, not
// retried: page_events is append-only analytics data and a poison
// message must not wedge the partition.
func (s *Service) CreateMessageHandler() func(ctx context.Context, key, value []byte) error {
	return func(ctx context.Context, key, value []byte) error {
		var view PageView
		if err := json.Unmarshal(value, &view); err != nil {
			s.logger.Error("Failed to unmarshal page view",
				zap.Error(err),
				zap.String("key", string(key)),
			)
			return nil
		}

		if err := view.Validate(); err != nil {
			s.logger.Warn("Skipping invalid page view",
				zap.Error(err),
				zap.String("view_id", view.ID),
			)
			return nil
		}

		if err := s.writer.InsertEvent(ctx, view.Page, view.Chapa, view.TS); err != nil {
			s.logger.Error("Failed to persist page view",
				zap.Error(err),
				zap.String("view_id", view.ID),
			)
			return err
		}

		s.logger.Debug("Page view persisted",
			zap.String("view_id", view.ID),
			zap.String("page", view.Page),
		)
		return nil
	}
}
