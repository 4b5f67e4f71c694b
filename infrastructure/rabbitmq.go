package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"ats/domain"
)

const publishTimeout = 5 * time.Second

// RabbitMQ publishes notifications to a durable queue and consumes them
// in the worker process.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	log     logrus.FieldLogger
}

// NewRabbitMQ dials url and declares the durable queue.
func NewRabbitMQ(url, queueName string, log logrus.FieldLogger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	log.WithField("queue", q.Name).Info("connected to rabbitmq")
	return &RabbitMQ{conn: conn, channel: ch, queue: q, log: log}, nil
}

// Deliver publishes n as a persistent JSON message.
func (r *RabbitMQ) Deliver(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.ID,
			Type:         string(n.Kind),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// ConsumeNotifications feeds queued notifications to handler until ctx is
// cancelled or the channel closes. Messages are acked after the handler
// returns; failed or malformed messages are rejected without requeue.
func (r *RabbitMQ) ConsumeNotifications(ctx context.Context, handler func(context.Context, domain.Notification) error) error {
	if err := r.channel.Qos(8, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	msgs, err := r.channel.ConsumeWithContext(
		ctx,
		r.queue.Name,
		"",
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}
	return r.drain(ctx, msgs, handler)
}

func (r *RabbitMQ) drain(ctx context.Context, msgs <-chan amqp.Delivery, handler func(context.Context, domain.Notification) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			r.handle(ctx, d, handler)
		}
	}
}

func (r *RabbitMQ) handle(ctx context.Context, d amqp.Delivery, handler func(context.Context, domain.Notification) error) {
	var n domain.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		r.log.WithError(err).WithField("message", d.MessageId).Warn("invalid notification format")
		_ = d.Reject(false)
		return
	}
	if err := handler(ctx, n); err != nil {
		r.log.WithError(err).WithField("notification", n.ID).Warn("notification handler failed")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (r *RabbitMQ) Close() error {
	if r == nil {
		return nil
	}
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
