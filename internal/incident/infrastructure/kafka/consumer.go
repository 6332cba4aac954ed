package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront-orders/internal/incident/domain"
	"github.com/dmehra2102/storefront-orders/pkg/outbox"
	"github.com/dmehra2102/storefront-orders/pkg/tracing"
)

const (
	maxAttempts  = 3
	retryBackoff = 200 * time.Millisecond
)

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Deduper interface {
	Key(topic string, partition int, offset int64) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Handler interface {
	Handle(ctx context.Context, eventType, eventKey string, payload []byte) error
}

type Consumer struct {
	log     *slog.Logger
	reader  Reader
	handler Handler
	idem    Deduper
	tracer  trace.Tracer
	backoff time.Duration
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

func NewConsumer(log *slog.Logger, reader Reader, handler Handler, idem Deduper) *Consumer {
	return &Consumer{
		log:     log,
		reader:  reader,
		handler: handler,
		idem:    idem,
		tracer:  otel.Tracer("incident-consumer"),
		backoff: retryBackoff,
	}
}

// Run consumes until ctx ends or a message keeps failing. In the latter case
// the offset stays uncommitted, so the message comes back after a restart.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		key := c.idem.Key(msg.Topic, msg.Partition, msg.Offset)
		seen, err := c.idem.Seen(ctx, key)
		if err != nil {
			// incidents are unique per event key, so a replay is harmless
			c.log.Warn("idempotency check failed, processing anyway", "key", key, "err", err)
		}
		if seen {
			c.log.Info("duplicate message skipped", "key", key)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("commit %s: %w", key, err)
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			if ferr := c.idem.Forget(context.WithoutCancel(ctx), key); ferr != nil {
				c.log.Error("idempotency release failed", "key", key, "err", ferr)
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("process %s: %w", key, err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit %s: %w", key, err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	eventType := tracing.HeaderValue(msg.Headers, outbox.HeaderEventType)
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumeOrderEvent")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.type", eventType),
		attribute.Int64("kafka.offset", msg.Offset),
	)

	eventKey := eventKeyOf(msg)
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = c.handler.Handle(msgCtx, eventType, eventKey, msg.Value)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrMalformedEvent) {
			c.log.Error("malformed event dropped", "event_type", eventType, "event_key", eventKey, "err", err)
			return nil
		}
		c.log.Warn("event handling failed", "event_type", eventType, "event_key", eventKey, "attempt", attempt, "err", err)
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.backoff):
		}
	}
	span.RecordError(err)
	return err
}

// eventKeyOf prefers the outbox event id, which survives a relay resending
// the same row. The message position is the fallback.
func eventKeyOf(msg kafka.Message) string {
	if id := tracing.HeaderValue(msg.Headers, outbox.HeaderEventID); id != "" {
		return "outbox:" + id
	}
	return fmt.Sprintf("%s:%d:%d", msg.Topic, msg.Partition, msg.Offset)
}
