package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter returns the writer the outbox dispatcher publishes order events
// through. Messages carry their own topic; equal keys land on the same
// partition so an order's events stay ordered.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}
