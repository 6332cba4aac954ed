package outbox

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/storefront-orders/pkg/tracing"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

// Dispatch publishes one event keyed by its aggregate id, so events of one
// order stay in one partition. The stored traceparent wins over the relay's
// own span.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	msg := d.message(ctx, event)
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("outbox dispatch failed", "event_id", event.ID, "type", event.Type, "err", err)
		return err
	}
	d.log.Debug("outbox dispatched", "event_id", event.ID, "type", event.Type)
	return nil
}

func (d *Dispatcher) message(ctx context.Context, event Event) kafka.Message {
	headers := make([]kafka.Header, 0, len(event.Headers)+4)
	for k, v := range event.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers,
		kafka.Header{Key: HeaderEventID, Value: []byte(strconv.FormatInt(event.ID, 10))},
		kafka.Header{Key: HeaderEventType, Value: []byte(event.Type)},
	)
	if _, set := event.Headers[HeaderAggregateType]; !set && event.AggregateType != "" {
		headers = append(headers, kafka.Header{Key: HeaderAggregateType, Value: []byte(event.AggregateType)})
	}
	if event.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: tracing.TraceparentHeader, Value: []byte(event.Traceparent)})
	} else {
		headers = tracing.InjectKafkaHeaders(ctx, headers)
	}

	return kafka.Message{
		Topic:   d.topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
}
