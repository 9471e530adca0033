package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish_WritesKeyedMessages(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	id := uuid.New()
	occurred := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(),
		OrderEvent{EventType: EventOrderCreated, OrderID: id, OccurredAt: occurred},
		OrderEvent{EventType: EventOrderPaid, OrderID: id, IsPaid: true, OccurredAt: occurred},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	msg := w.msgs[1]
	assert.Equal(t, id.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "order.paid", string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "order.paid", decoded["event_type"])
	assert.Equal(t, id.String(), decoded["order_id"])
	assert.Equal(t, true, decoded["is_paid"])
	assert.Equal(t, "2025-03-01T12:00:00Z", decoded["occurred_at"])
}

func TestPublish_NoEvents(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	p := &KafkaPublisher{writer: w}

	assert.NoError(t, p.Publish(context.Background()))
}

func TestPublish_WriterError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), OrderEvent{EventType: EventOrderDeleted, OrderID: uuid.New()})
	require.ErrorContains(t, err, "broker down")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka container test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	container, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	}()

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	p := NewKafkaPublisher(brokers...)
	defer p.Close()

	id := uuid.New()
	require.Eventually(t, func() bool {
		return p.Publish(ctx, OrderEvent{EventType: EventOrderCreated, OrderID: id, OccurredAt: time.Now().UTC()}) == nil
	}, 30*time.Second, time.Second)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   OrderEventsTopic,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, id.String(), string(msg.Key))
}
