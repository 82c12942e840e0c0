package internal

import (
	"context"
	"fmt"
	"time"

	"payfast/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultPublishTimeout = 3 * time.Second

// KafkaPublisher writes order events to a single topic. A publish runs
// inside the notification request, so it is bounded by a short timeout
// covering all write attempts.
type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
	logger  *zap.Logger
}

func NewKafkaPublisher(conf *config.Config, logger *zap.Logger) *KafkaPublisher {
	timeout := conf.Kafka.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(conf.Kafka.Brokers...),
		Topic:        conf.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: timeout,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	}
	return &KafkaPublisher{
		writer:  writer,
		timeout: timeout,
		logger:  logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message",
			zap.String("topic", p.writer.Topic),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("publish message: %w", err)
	}
	p.logger.Debug("Message published",
		zap.String("topic", p.writer.Topic),
		zap.String("key", key),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
