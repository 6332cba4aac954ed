package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-orders/internal/testenv"
	"github.com/dmehra2102/storefront-orders/pkg/outbox"
	"github.com/dmehra2102/storefront-orders/pkg/tracing"
)

func TestWriter_DeliversOutboxEvent(t *testing.T) {
	brokers := testenv.Kafka(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	w := NewWriter(brokers)
	defer w.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := outbox.NewDispatcher(log, w, "order.events")

	// the first write may race topic auto-creation
	require.Eventually(t, func() bool {
		return d.Dispatch(ctx, outbox.Event{
			ID:          42,
			AggregateID: "order-1",
			Type:        "OrderPlaced",
			Payload:     []byte(`{"orderId":"order-1"}`),
		}) == nil
	}, 30*time.Second, time.Second)

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: "order.events", GroupID: "producer-test"})
	defer r.Close()

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order-1", string(msg.Key))
	assert.JSONEq(t, `{"orderId":"order-1"}`, string(msg.Value))
	assert.Equal(t, "42", tracing.HeaderValue(msg.Headers, outbox.HeaderEventID))
	assert.Equal(t, "OrderPlaced", tracing.HeaderValue(msg.Headers, outbox.HeaderEventType))
}
