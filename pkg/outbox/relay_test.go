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
)

type fakeStore struct {
	mu      sync.Mutex
	pending []Event
	sent    []int64
	failed  map[int64]string
	onDrain func()
	drained bool
}

func newFakeStore(pending ...Event) *fakeStore {
	return &fakeStore{pending: pending, failed: make(map[int64]string)}
}

func (f *fakeStore) LockBatch(_ context.Context, _ string, _ int, _ time.Duration) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out, nil
}

func (f *fakeStore) MarkSent(_ context.Context, ids []int64) error {
	f.mu.Lock()
	f.sent = append(f.sent, ids...)
	f.mu.Unlock()
	f.finish()
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	f.mu.Lock()
	f.failed[id] = errMsg
	f.mu.Unlock()
	f.finish()
	return nil
}

func (f *fakeStore) ExtendLease(context.Context, string, []int64, time.Duration) error { return nil }

func (f *fakeStore) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.drained && f.onDrain != nil {
		f.drained = true
		f.onDrain()
	}
}

type fakeProducer struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherBuildsKafkaMessage(t *testing.T) {
	producer := &fakeProducer{}
	d := NewDispatcher(discardLogger(), producer, "order.events")

	event := Event{
		ID:          7,
		AggregateID: "order-123",
		Type:        "OrderCreated",
		Payload:     []byte(`{"orderId":"order-123"}`),
		Headers:     map[string]string{"source": "order-service"},
		Traceparent: "00-abc-def-01",
	}
	require.NoError(t, d.Dispatch(context.Background(), event))

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, "order.events", msg.Topic)
	assert.Equal(t, []byte("order-123"), msg.Key)
	assert.Equal(t, event.Payload, msg.Value)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "OrderCreated", headers["event_type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])
	assert.Equal(t, "order-service", headers["source"])
}

func TestRelayDeliversAndMarksSent(t *testing.T) {
	store := newFakeStore(
		Event{ID: 1, AggregateID: "a", Type: "OrderCreated", Payload: []byte(`{}`)},
		Event{ID: 2, AggregateID: "b", Type: "OrderCreated", Payload: []byte(`{}`)},
	)
	producer := &fakeProducer{}
	relay := NewRelay(discardLogger(), store, NewDispatcher(discardLogger(), producer, "order.events"), "relay-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store.onDrain = cancel

	require.NoError(t, relay.Run(ctx))

	assert.ElementsMatch(t, []int64{1, 2}, store.sent)
	assert.Len(t, producer.msgs, 2)
	assert.Empty(t, store.failed)
}

func TestRelayMarksFailedOnDispatchError(t *testing.T) {
	store := newFakeStore(Event{ID: 9, AggregateID: "a", Type: "OrderCreated", Payload: []byte(`{}`)})
	producer := &fakeProducer{err: errors.New("broker unreachable")}
	relay := NewRelay(discardLogger(), store, NewDispatcher(discardLogger(), producer, "order.events"), "relay-1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store.onDrain = cancel

	require.NoError(t, relay.Run(ctx))

	assert.Empty(t, store.sent)
	assert.Contains(t, store.failed[9], "broker unreachable")
}
