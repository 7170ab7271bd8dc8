// Package notify fans domain events out as mail jobs. The engine publishes
// through the Publisher port; production uses the rabbitmq implementation,
// consumed by cmd/mail.
package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

// MailQueueName is the durable rabbitmq queue shared with cmd/mail.
const MailQueueName = "email_queue"

type Publisher interface {
	PublishMail(ctx context.Context, msg domain.MailMessage) error
}

// AMQP publishes mail messages to the shared queue.
type AMQP struct {
	channel *amqp.Channel
	timeout time.Duration
}

func NewAMQP(channel *amqp.Channel, timeout time.Duration) *AMQP {
	return &AMQP{channel: channel, timeout: timeout}
}

func (p *AMQP) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		MailQueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Nop discards messages; used by tests and by deployments without a broker.
type Nop struct{}

func (Nop) PublishMail(context.Context, domain.MailMessage) error { return nil }
