package outbox

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	pending []Entry
	sent    []int64
	failed  []int64
}

func (m *memStore) LockBatch(_ context.Context, _ string, batchSize int, _ time.Duration) ([]Entry, error) {
	if len(m.pending) == 0 {
		return nil, nil
	}
	n := batchSize
	if n > len(m.pending) {
		n = len(m.pending)
	}
	batch := m.pending[:n]
	m.pending = m.pending[n:]
	return batch, nil
}

func (m *memStore) MarkSent(_ context.Context, ids []int64) error {
	m.sent = append(m.sent, ids...)
	return nil
}

func (m *memStore) MarkFailed(_ context.Context, id int64, _ string) error {
	m.failed = append(m.failed, id)
	return nil
}

type memProducer struct {
	msgs []kafka.Message
	fail map[string]bool
}

func (p *memProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if p.fail[string(m.Key)] {
			return errors.New("broker rejected message")
		}
		p.msgs = append(p.msgs, m)
	}
	return nil
}

func TestRelay_DispatchesPendingEntries(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	store := &memStore{pending: []Entry{
		{ID: 1, EventID: "e1", Type: "InventoryShortfall", Key: "O1", Payload: []byte(`{}`)},
		{ID: 2, EventID: "e2", Type: "InventoryShortfall", Key: "O2", Payload: []byte(`{}`), Traceparent: "00-abc-def-01"},
	}}
	producer := &memProducer{}

	relay := NewRelay(log, store, NewDispatcher(log, producer, "ops.shortfalls"), "test-relay")
	relay.interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, relay.Run(ctx))

	require.Len(t, producer.msgs, 2)
	assert.Equal(t, []int64{1, 2}, store.sent)
	assert.Empty(t, store.failed)

	msg := producer.msgs[1]
	assert.Equal(t, "O2", string(msg.Key))
	var seen []string
	for _, h := range msg.Headers {
		seen = append(seen, h.Key+"="+string(h.Value))
	}
	assert.Contains(t, seen, "event_type=InventoryShortfall")
	assert.Contains(t, seen, "event_id=e2")
	assert.Contains(t, seen, "traceparent=00-abc-def-01")
}

func TestRelay_FailedDispatchDoesNotBlockBatch(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	store := &memStore{pending: []Entry{
		{ID: 1, EventID: "e1", Type: "InventoryShortfall", Key: "bad", Payload: []byte(`{}`)},
		{ID: 2, EventID: "e2", Type: "InventoryShortfall", Key: "O2", Payload: []byte(`{}`)},
	}}
	producer := &memProducer{fail: map[string]bool{"bad": true}}

	relay := NewRelay(log, store, NewDispatcher(log, producer, "ops.shortfalls"), "test-relay")
	relay.interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, relay.Run(ctx))

	assert.Equal(t, []int64{1}, store.failed)
	assert.Equal(t, []int64{2}, store.sent)
	require.Len(t, producer.msgs, 1)
}
