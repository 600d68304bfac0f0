package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// MessageHandler processes one consumed record. A non-nil error is
// logged but the offset is committed regardless; redelivery is the
// broker's job only when the whole session dies.
type MessageHandler func(ctx context.Context, key, value []byte) error

type ConsumerConfig struct {
	Brokers           []string
	Topics            []string
	GroupID           string
	AutoCommit        bool
	CommitInterval    time.Duration
	SessionTimeout    time.Duration
	RebalanceStrategy string
}

// Consumer runs a sarama consumer group and feeds every record through
// a single handler.
type Consumer struct {
	group   sarama.ConsumerGroup
	topics  []string
	handler MessageHandler
	logger  *zap.Logger
	ready   chan struct{}
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_3_0_0
	sc.Consumer.Return.Errors = true
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Offsets.AutoCommit.Enable = cfg.AutoCommit
	sc.Consumer.Offsets.AutoCommit.Interval = cfg.CommitInterval
	sc.Consumer.Group.Session.Timeout = cfg.SessionTimeout
	sc.Consumer.Group.Heartbeat.Interval = cfg.SessionTimeout / 3
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{
		balanceStrategy(cfg.RebalanceStrategy),
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	logger.Info("Kafka consumer ready",
		zap.Strings("brokers", cfg.Brokers),
		zap.Strings("topics", cfg.Topics),
		zap.String("group_id", cfg.GroupID),
	)

	return &Consumer{
		group:   group,
		topics:  cfg.Topics,
		handler: handler,
		logger:  logger,
		ready:   make(chan struct{}),
	}, nil
}

// balanceStrategy defaults to sticky: records are keyed per user, and
// keeping partition assignments across rebalances keeps each user's
// stream on one consumer.
func balanceStrategy(name string) sarama.BalanceStrategy {
	switch name {
	case "roundrobin":
		return sarama.NewBalanceStrategyRoundRobin()
	case "range":
		return sarama.NewBalanceStrategyRange()
	}
	return sarama.NewBalanceStrategySticky()
}

// Start consumes until ctx is cancelled. Consume returns on every
// rebalance, so it runs in a loop.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		if err := c.group.Consume(ctx, c.topics, c); err != nil {
			c.logger.Error("Consumer session failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			c.logger.Info("Consumer stopping")
			return nil
		}
		c.ready = make(chan struct{})
	}
}

func (c *Consumer) Close() error {
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	c.logger.Info("Kafka consumer closed")
	return nil
}

// WaitReady blocks until the consumer has joined the group.
func (c *Consumer) WaitReady() <-chan struct{} {
	return c.ready
}

// Setup runs at the start of each session, after a rebalance.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.logger.Info("Consumer group session started")
	close(c.ready)
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim drains one partition. The messages channel closes when
// the session ends.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := c.handler(session.Context(), message.Key, message.Value); err != nil {
			c.logger.Error("Failed to process message",
				zap.Error(err),
				zap.String("topic", message.Topic),
				zap.Int32("partition", message.Partition),
				zap.Int64("offset", message.Offset),
			)
		}
		session.MarkMessage(message, "")

		if session.Context().Err() != nil {
			return nil
		}
	}
	return nil
}
