package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/billing-engine/internal/application/billing"
	"github.com/jhoicas/billing-engine/internal/domain/entity"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func testProducer(w *fakeWriter) *Producer {
	return &Producer{writer: w, topic: "test", now: func() time.Time { return time.Unix(0, 0) }}
}

func TestBillEventPublisherKeysByBill(t *testing.T) {
	w := &fakeWriter{}
	pub := NewBillEventPublisher(testProducer(w))

	event := entity.BillEvent{
		EventID:     "e1",
		Type:        entity.BillEventCancelled,
		WorkspaceID: "ws1",
		BillID:      "b1",
		BillNumber:  "CS241201001",
		Days:        []string{"2024-12-01", "2024-12-02"},
	}
	require.NoError(t, pub.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "b1", string(w.msgs[0].Key))

	var decoded entity.BillEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, event.Days, decoded.Days)
	assert.Equal(t, entity.BillEventCancelled, decoded.Type)
}

func TestNotificationDispatcherWrapsWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	d := NewNotificationDispatcher(testProducer(w))
	err := d.Dispatch(context.Background(), billing.BillNotification{Phone: "+919876543210", Channel: "whatsapp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker caído")
}

func TestConsumerRetriesAndCommits(t *testing.T) {
	reader := &fakeReader{msgs: make(chan kafka.Message, 3)}
	c := newConsumer(reader, nil)
	c.backoff = time.Millisecond

	valid, _ := json.Marshal(entity.BillEvent{EventID: "e1", WorkspaceID: "ws1", Days: []string{"2024-12-01"}})
	reader.msgs <- kafka.Message{Offset: 1, Value: valid}
	reader.msgs <- kafka.Message{Offset: 2, Value: []byte("{no es json")}
	reader.msgs <- kafka.Message{Offset: 3, Value: valid}

	var (
		mu       sync.Mutex
		attempts int
		handled  []string
	)
	done := make(chan struct{})
	handler := NewBillEventHandler(func(_ context.Context, e entity.BillEvent) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("redis no disponible")
		}
		handled = append(handled, e.EventID)
		if len(handled) == 2 {
			close(done)
		}
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, handler.HandleMessage) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("el consumidor no procesó los mensajes")
	}
	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	assert.Equal(t, []int64{1, 2, 3}, reader.commits())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}
