package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/confradar/confradar/internal/config"
)

// CatalogUpdateEvent is published by the ingestion pipeline whenever
// the conference catalog changes. This side only consumes it to bound
// staleness below the TTL.
type CatalogUpdateEvent struct {
	Source    string    `json:"source"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Invalidator is satisfied by the catalog cache.
type Invalidator interface {
	Invalidate()
}

type CatalogUpdateConsumer struct {
	reader *kafka.Reader
	cache  Invalidator
	logger *logrus.Logger
}

func NewCatalogUpdateConsumer(cfg *config.Config, cache Invalidator, logger *logrus.Logger) (*CatalogUpdateConsumer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topics.CatalogUpdates,
		GroupID:        cfg.Kafka.ConsumerGroup,
		MinBytes:       1,
		MaxBytes:       1e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &CatalogUpdateConsumer{
		reader: reader,
		cache:  cache,
		logger: logger,
	}, nil
}

// Run consumes update events until the context is cancelled. Each
// event invalidates the catalog snapshot so the next query reloads.
// Consume errors are logged and retried; a broken broker never stops
// the query path, it only falls back to TTL-bounded staleness.
func (c *CatalogUpdateConsumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			message, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.WithError(err).Warn("Failed to read catalog update message")
				continue
			}

			var event CatalogUpdateEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				c.logger.WithError(err).Warn("Skipping malformed catalog update event")
				continue
			}

			c.cache.Invalidate()
			c.logger.WithFields(logrus.Fields{
				"source": event.Source,
				"reason": event.Reason,
			}).Info("Catalog snapshot invalidated by update event")
		}
	}
}

func (c *CatalogUpdateConsumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("failed to close catalog update reader: %w", err)
	}
	return nil
}
