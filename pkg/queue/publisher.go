package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wavelink/authcore/pkg/logger"
	"go.uber.org/zap"
)

// Publisher emits messages to a durable queue. Errors are logged and
// returned so callers can ignore failures without interrupting the main
// request flow.
type Publisher struct {
	url   string
	queue string
}

func NewPublisher(url, queue string) *Publisher {
	return &Publisher{url: url, queue: queue}
}

// Publish marshals the payload and delivers it as a persistent message.
// The connection is dialed per publish; outbound volume here is low
// (verification and reset mails) and a broker restart never strands a
// stale channel.
func (p *Publisher) Publish(ctx context.Context, payload any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		logger.GetLogger().Error("Queue dial failed",
			zap.String("queue", p.queue),
			zap.Error(err),
		)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.GetLogger().Error("Queue channel open failed",
			zap.String("queue", p.queue),
			zap.Error(err),
		)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		logger.GetLogger().Error("Queue declare failed",
			zap.String("queue", p.queue),
			zap.Error(err),
		)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.GetLogger().Error("Queue payload marshal failed",
			zap.String("queue", p.queue),
			zap.Error(err),
		)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		logger.GetLogger().Error("Queue publish failed",
			zap.String("queue", p.queue),
			zap.Error(err),
		)
		return err
	}

	return nil
}
