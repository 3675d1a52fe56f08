package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/skillswap/course-marketplace/internal/logger"
)

// Publisher sends order events to RabbitMQ, dialing once per message.
// Errors are logged and returned; the caller decides whether they matter.
type Publisher struct {
	url string
	log *logger.Logger
}

// NewPublisher returns nil when url is empty, which callers treat as
// "events disabled".
func NewPublisher(url string, log *logger.Logger) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{url: url, log: log.With("component", "order-publisher")}
}

// OrderPaid publishes ev to the order.paid queue as a persistent message.
func (p *Publisher) OrderPaid(ctx context.Context, ev OrderPaidEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal event failed", "error", err)
		return err
	}
	return p.publish(ctx, OrderPaidQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queueName string, body []byte) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error("channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		p.log.Error("queue declare failed", "queue", queueName, "error", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		p.log.Error("publish failed", "queue", queueName, "error", err)
		return err
	}
	return nil
}
