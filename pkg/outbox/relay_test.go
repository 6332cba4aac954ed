package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmehra2102/storefront-orders/pkg/tracing"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu       sync.Mutex
	pending  []Event
	sent     []int64
	failed   map[int64]string
	extended int
}

func (s *fakeStore) LockBatch(_ context.Context, relayID string, batchSize int, _ time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := min(batchSize, len(s.pending))
	batch := append([]Event(nil), s.pending[:n]...)
	s.pending = s.pending[n:]
	for i := range batch {
		batch[i].RelayID = relayID
	}
	return batch, nil
}

func (s *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id int64, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = msg
	return nil
}

func (s *fakeStore) ExtendLease(context.Context, string, []int64, time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extended++
	return nil
}

func (s *fakeStore) sentIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.sent...)
}

type fakeProducer struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	failOn string
}

func (p *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRelayOnce_SendsAndMarks(t *testing.T) {
	store := &fakeStore{pending: []Event{
		{ID: 1, AggregateID: "o1", AggregateType: "order", Type: "OrderPlaced", Payload: []byte(`{}`), Traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
		{ID: 2, AggregateID: "o2", Type: "StockAdjustmentFailed", Payload: []byte(`{}`), Headers: map[string]string{"aggregate_type": "order"}},
		{ID: 3, AggregateID: "o3", Type: "OrderPlaced", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{failOn: "o2"}
	relay := NewRelay(discard(), store, NewDispatcher(discard(), producer, "order.events"), "relay-1")

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 3}, store.sentIDs())
	assert.Contains(t, store.failed[2], "broker unavailable")

	require.Len(t, producer.msgs, 2)
	first := producer.msgs[0]
	assert.Equal(t, "order.events", first.Topic)
	assert.Equal(t, "o1", string(first.Key))
	assert.Equal(t, "1", tracing.HeaderValue(first.Headers, HeaderEventID))
	assert.Equal(t, "OrderPlaced", tracing.HeaderValue(first.Headers, HeaderEventType))
	assert.Equal(t, "order", tracing.HeaderValue(first.Headers, HeaderAggregateType))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", tracing.HeaderValue(first.Headers, tracing.TraceparentHeader))
}

func TestRelayOnce_EmptyBatch(t *testing.T) {
	store := &fakeStore{}
	relay := NewRelay(discard(), store, NewDispatcher(discard(), &fakeProducer{}, "t"), "relay-1")

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelayOnce_ExtendsLeaseOnSlowBatch(t *testing.T) {
	store := &fakeStore{pending: []Event{{ID: 1, AggregateID: "a"}, {ID: 2, AggregateID: "b"}}}
	relay := NewRelay(discard(), store, NewDispatcher(discard(), &fakeProducer{}, "t"), "relay-1", WithLease(time.Second))
	clock := time.Unix(0, 0)
	relay.now = func() time.Time {
		clock = clock.Add(400 * time.Millisecond)
		return clock
	}

	_, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Positive(t, store.extended)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := &fakeStore{pending: []Event{{ID: 7, AggregateID: "o7", Type: "OrderPlaced"}}}
	relay := NewRelay(discard(), store, NewDispatcher(discard(), &fakeProducer{}, "t"), "relay-1",
		WithInterval(5*time.Millisecond), WithBatchSize(10))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool { return len(store.sentIDs()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
