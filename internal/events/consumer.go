package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrUnknownCollection is returned by a Syncer for collections it does not hold.
var ErrUnknownCollection = errors.New("unknown collection")

// Syncer refreshes the local mirror of one collection.
type Syncer interface {
	Sync(ctx context.Context, collection string) (int, error)
}

// SyncerFunc adapts a function to Syncer.
type SyncerFunc func(ctx context.Context, collection string) (int, error)

func (f SyncerFunc) Sync(ctx context.Context, collection string) (int, error) {
	return f(ctx, collection)
}

const syncTimeout = 30 * time.Second

// Consumer keeps local mirrors current by syncing every collection another
// instance reports as changed.
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	serviceName string
	syncer      Syncer
	isUnknown   func(error) bool
	log         *zap.Logger
}

// NewConsumer dials url and declares the shared exchange. isUnknown reports
// sync errors that will never succeed on retry; nil treats none that way.
func NewConsumer(url, serviceName string, syncer Syncer, isUnknown func(error) bool, log *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Consumer connected to RabbitMQ", zap.String("exchange", ExchangeName))
	return newConsumer(conn, ch, serviceName, syncer, isUnknown, log), nil
}

func newConsumer(conn *amqp.Connection, ch *amqp.Channel, serviceName string, syncer Syncer, isUnknown func(error) bool, log *zap.Logger) *Consumer {
	if isUnknown == nil {
		isUnknown = func(err error) bool { return errors.Is(err, ErrUnknownCollection) }
	}
	return &Consumer{
		conn:        conn,
		channel:     ch,
		serviceName: serviceName,
		syncer:      syncer,
		isUnknown:   isUnknown,
		log:         log,
	}
}

// Start binds the service queue to every content key and processes
// deliveries until ctx is done or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	queueName := fmt.Sprintf("%s.content.queue", c.serviceName)

	queue, err := c.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := c.channel.QueueBind(queue.Name, ContentPrefix+".#", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		c.serviceName, // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("Listening for content events", zap.String("queue", queue.Name))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	event, err := DecodeEvent(msg.RoutingKey, msg.Body)
	if err != nil {
		c.log.Warn("Dropping malformed event", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		msg.Nack(false, false)
		return
	}

	syncCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	n, err := c.syncer.Sync(syncCtx, event.Payload.Collection)
	switch {
	case err == nil:
		c.log.Debug("Mirror refreshed",
			zap.String("collection", event.Payload.Collection),
			zap.String("action", event.Payload.Action),
			zap.Int("records", n),
		)
		msg.Ack(false)
	case c.isUnknown(err):
		c.log.Warn("Event for unknown collection", zap.String("collection", event.Payload.Collection))
		msg.Nack(false, false)
	default:
		c.log.Error("Failed to sync collection",
			zap.String("collection", event.Payload.Collection),
			zap.Error(err),
		)
		msg.Nack(false, true) // Requeue for retry
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
