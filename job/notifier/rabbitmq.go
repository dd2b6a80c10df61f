package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ncobase/jobqueue/job/structs"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange   = "jobqueue.events"
	DefaultRoutingKey = "jobs"
)

// RabbitMQ publishes events to a topic exchange with publisher confirms. The
// routing key is "<prefix>.<event type>", e.g. "jobs.job_completed".
type RabbitMQ struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	prefix   string
}

// NewRabbitMQ opens a confirm-mode channel on conn and declares the exchange
func NewRabbitMQ(conn *amqp.Connection, exchange, routingKey string) (*RabbitMQ, error) {
	if conn == nil {
		return nil, errors.New("notifier: nil rabbitmq connection")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	if routingKey == "" {
		routingKey = DefaultRoutingKey
	}
	r := &RabbitMQ{conn: conn, exchange: exchange, prefix: routingKey}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) open() error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(r.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("rabbitmq: declare exchange %s: %w", r.exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("rabbitmq: enable confirms: %w", err)
	}
	r.channel = ch
	return nil
}

// RoutingKey returns the routing key used for an event type
func (r *RabbitMQ) RoutingKey(t structs.EventType) string {
	return r.prefix + "." + string(t)
}

func (r *RabbitMQ) Notify(ctx context.Context, event *structs.Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel == nil || r.channel.IsClosed() {
		if err := r.open(); err != nil {
			return err
		}
	}

	confirm, err := r.channel.PublishWithDeferredConfirmWithContext(ctx, r.exchange, r.RoutingKey(event.Type), false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    jobID(event),
			Type:         string(event.Type),
			Timestamp:    event.Timestamp,
			Body:         data,
		})
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", event.Type, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq confirm %s: %w", event.Type, err)
	}
	if !acked {
		return fmt.Errorf("rabbitmq publish %s: nacked by broker", event.Type)
	}
	return nil
}

// Close closes the publishing channel; the connection is owned by the caller.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channel == nil {
		return nil
	}
	err := r.channel.Close()
	r.channel = nil
	return err
}
