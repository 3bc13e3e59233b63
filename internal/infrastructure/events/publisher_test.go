package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Tienda-api/internal/domain/event"
	"github.com/jhoicas/Tienda-api/pkg/config"
)

type mockWriter struct{ mock.Mock }

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockWriter) Close() error { return m.Called().Error(0) }

func sampleEvent() event.SaleEvent {
	return event.SaleEvent{
		EventID:    "e1",
		EventType:  event.SaleCreated,
		TenantID:   "t1",
		SaleID:     "s1",
		Number:     "V-000001",
		Total:      decimal.RequireFromString("12500.50"),
		OccurredAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]kafka.Message) }).
		Return(nil)
	p := newKafkaPublisher(w, "tienda.sales", nil)

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.Len(t, sent, 1)
	assert.Equal(t, []byte("t1"), sent[0].Key)
	assert.Equal(t, "event_type", sent[0].Headers[0].Key)
	assert.Equal(t, []byte(event.SaleCreated), sent[0].Headers[0].Value)

	var got event.SaleEvent
	require.NoError(t, json.Unmarshal(sent[0].Value, &got))
	assert.Equal(t, "V-000001", got.Number)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("12500.50")))
}

func TestKafkaPublisher_ErrorDelBroker(t *testing.T) {
	w := &mockWriter{}
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("leader not available"))
	p := newKafkaPublisher(w, "tienda.sales", nil)

	err := p.Publish(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "leader not available")
}

func TestNewKafkaPublisher_SinBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(config.KafkaConfig{Topic: "x"}, nil)
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, NewLogPublisher(nil).Publish(context.Background(), sampleEvent()))
}
