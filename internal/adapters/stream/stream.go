// Package stream consumes alert batches from the survey's Kafka feed
// and hands them to the classification service. One malformed message
// never stops the loop.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/astrolab/knwatch/internal/domain/model"
	"github.com/astrolab/knwatch/pkg/logger"
	"github.com/astrolab/knwatch/pkg/metrics"
)

const (
	defaultMinBytes = 1
	defaultMaxBytes = 10 << 20 // alert batches with cutouts get large
)

// Processor classifies one alert batch.
type Processor interface {
	Process(ctx context.Context, b *model.Batch) ([]bool, error)
}

// MessageReader abstracts the Kafka reader for testing.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Config holds the Kafka connection settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// ParseBrokers splits a comma-separated broker list.
func ParseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Consumer reads alert batches off one topic.
type Consumer struct {
	reader    MessageReader
	processor Processor
	log       logger.Logger
}

// Option applies a configuration option to the Consumer.
type Option func(*Consumer)

// WithReader replaces the Kafka reader, mainly for tests.
func WithReader(r MessageReader) Option {
	return func(c *Consumer) {
		if r != nil {
			c.reader = r
		}
	}
}

// WithLogger sets a custom logger for the consumer.
func WithLogger(log logger.Logger) Option {
	return func(c *Consumer) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a Consumer for the configured topic.
func New(cfg Config, p Processor, opts ...Option) *Consumer {
	c := &Consumer{processor: p}

	for _, opt := range opts {
		opt(c)
	}

	if c.reader == nil {
		c.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			GroupID:  cfg.GroupID,
			MinBytes: defaultMinBytes,
			MaxBytes: defaultMaxBytes,
		})
	}
	if c.log == nil {
		c.log = logger.Get().Named("stream")
	}
	return c
}

// Run consumes messages until ctx is canceled or the reader closes.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		c.handle(ctx, msg)
	}
}

// handle decodes and classifies one message. Decode and validation
// failures are counted and skipped.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var b model.Batch
	if err := json.Unmarshal(msg.Value, &b); err != nil {
		metrics.RecordMalformedBatch()
		c.log.Warn(ctx, "dropping undecodable message",
			logger.Int("partition", msg.Partition),
			logger.Any("offset", msg.Offset),
			logger.Error(err),
		)
		return
	}

	if _, err := c.processor.Process(ctx, &b); err != nil {
		c.log.Warn(ctx, "batch rejected",
			logger.Any("offset", msg.Offset),
			logger.Error(err),
		)
	}
}

// Close shuts down the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
