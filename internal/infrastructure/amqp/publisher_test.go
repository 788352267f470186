package amqp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/delicious/api/internal/catalog/application"
)

func TestEncodeEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg, err := encodeEvent(application.StoreEvent{
		Type:       application.EventStoreCreated,
		StoreID:    "abc",
		Slug:       "pizza",
		Name:       "Pizza",
		AuthorID:   "u1",
		OccurredAt: at,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, application.EventStoreCreated, msg.Type)
	assert.Equal(t, at, msg.Timestamp)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "pizza", body["slug"])
	assert.Equal(t, "store.created", body["type"])
}

func TestLogPublisherNeverFails(t *testing.T) {
	p := LogPublisher{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.NoError(t, p.PublishStoreEvent(context.Background(), application.StoreEvent{Type: application.EventStoreUpdated}))
}
