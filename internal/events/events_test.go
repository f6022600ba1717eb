package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ackRecorder struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked++; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func delivery(t *testing.T, ack *ackRecorder, key string, event any) amqp.Delivery {
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, RoutingKey: key, Body: body}
}

func TestRoutingKeys(t *testing.T) {
	key := RoutingKey("hero_banners", "updated")
	assert.Equal(t, "content.hero_banners.updated", key)

	collection, action, err := ParseRoutingKey(key)
	require.NoError(t, err)
	assert.Equal(t, "hero_banners", collection)
	assert.Equal(t, "updated", action)

	for _, bad := range []string{"", "content", "catalog.books.created", "content..created", "content.a.b.c"} {
		_, _, err := ParseRoutingKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewContentEvent(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := NewContentEvent("products", "created", "p1", now)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "content.products.created", event.EventType)
	assert.Equal(t, "2024-03-01T12:00:00Z", event.Timestamp)
	assert.Equal(t, ContentPayload{Collection: "products", Action: "created", ID: "p1"}, event.Payload)
}

func TestDecodeEventFallsBackToRoutingKey(t *testing.T) {
	event, err := DecodeEvent("content.series.deleted", []byte(`{"event_id":"e1","payload":{"id":"s1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "series", event.Payload.Collection)
	assert.Equal(t, "deleted", event.Payload.Action)
	assert.Equal(t, "s1", event.Payload.ID)

	_, err = DecodeEvent("content.series.deleted", []byte("{"))
	assert.Error(t, err)
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, correlationID(context.Background()))
	assert.Equal(t, "req-1", correlationID(WithCorrelationID(context.Background(), "req-1")))
}

func TestHandleMessage(t *testing.T) {
	var synced []string
	failing := errors.New("database unavailable")
	syncer := SyncerFunc(func(_ context.Context, collection string) (int, error) {
		switch collection {
		case "ghosts":
			return 0, ErrUnknownCollection
		case "orders":
			return 0, failing
		}
		synced = append(synced, collection)
		return 3, nil
	})
	c := newConsumer(nil, nil, "test", syncer, nil, zap.NewNop())
	ctx := context.Background()

	t.Run("ack after sync", func(t *testing.T) {
		ack := &ackRecorder{}
		c.handleMessage(ctx, delivery(t, ack, "content.products.created", NewContentEvent("products", "created", "p1", time.Now())))
		assert.Equal(t, 1, ack.acked)
		assert.Equal(t, []string{"products"}, synced)
	})

	t.Run("unknown collection is dropped", func(t *testing.T) {
		ack := &ackRecorder{}
		c.handleMessage(ctx, delivery(t, ack, "content.ghosts.created", NewContentEvent("ghosts", "created", "g1", time.Now())))
		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeue)
	})

	t.Run("sync failure is requeued", func(t *testing.T) {
		ack := &ackRecorder{}
		c.handleMessage(ctx, delivery(t, ack, "content.orders.updated", NewContentEvent("orders", "updated", "o1", time.Now())))
		assert.Equal(t, 1, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("malformed body is dropped", func(t *testing.T) {
		ack := &ackRecorder{}
		c.handleMessage(ctx, amqp.Delivery{Acknowledger: ack, RoutingKey: "content.products.created", Body: []byte("not json")})
		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeue)
	})
}
