package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxBridgeBackoff = 30 * time.Second

// AMQPBridge forwards every bus event to a durable RabbitMQ queue.
type AMQPBridge struct {
	url   string
	queue string
}

func NewAMQPBridge(url string, queue string) *AMQPBridge {
	return &AMQPBridge{url: url, queue: queue}
}

// Run subscribes to bus and publishes until ctx is cancelled. Broker outages
// are retried with exponential backoff; events published while disconnected
// are dropped.
func (b *AMQPBridge) Run(ctx context.Context, bus Bus) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(b.url)
		if err != nil {
			slog.Warn("amqp bridge: dial failed", "error", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBridgeBackoff)
			continue
		}
		backoff = time.Second

		err = b.forward(ctx, conn, events)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		slog.Warn("amqp bridge: publish loop ended, reconnecting", "error", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return
		}
	}
}

func (b *AMQPBridge) forward(ctx context.Context, conn *amqp.Connection, events <-chan Event) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			return fmt.Errorf("connection closed: %v", amqpErr)
		case e, ok := <-events:
			if !ok {
				return nil
			}
			msg, err := publishingFor(e)
			if err != nil {
				slog.Error("amqp bridge: encode event", "type", e.Type, "error", err)
				continue
			}
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = ch.PublishWithContext(pubCtx, "", b.queue, false, false, msg)
			cancel()
			if err != nil {
				return fmt.Errorf("publish %s: %w", e.Type, err)
			}
		}
	}
}

func publishingFor(e Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Type:         string(e.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
