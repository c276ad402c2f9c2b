package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/models"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	prefetchCount  = 20
)

// Deliverer sends one notice and reports failure.
type Deliverer interface {
	Deliver(ctx context.Context, notice models.WaitlistNotice) error
}

type Consumer struct {
	url       string
	queue     string
	deliverer Deliverer
}

func NewConsumer(url, queue string, deliverer Deliverer) *Consumer {
	return &Consumer{url: url, queue: queue, deliverer: deliverer}
}

// Run consumes until ctx is done, reconnecting with exponential backoff when
// the broker is unreachable or the delivery stream closes.
func (c *Consumer) Run(ctx context.Context) error {
	logger := log.Ctx(ctx).With().Str("queue", c.queue).Logger()
	backoff := initialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			logger.Warn().Err(err).Dur("retry_in", backoff).Msg("Failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = initialBackoff

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(err).Msg("Consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to set consumer QoS")
	}
	if err := declareQueue(ch, c.queue); err != nil {
		return err
	}
	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	log.Ctx(ctx).Info().Str("queue", c.queue).Msg("Waitlist consumer started")
	for d := range deliveries {
		if err := c.handleMessage(ctx, d.Body); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("message_id", d.MessageId).Msg("Failed to handle waitlist notice")
			// Dropped rather than requeued so a bad message cannot loop.
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var notice models.WaitlistNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		return fmt.Errorf("unmarshal notice: %w", err)
	}
	if notice.Email == "" {
		return fmt.Errorf("notice %d has no recipient", notice.WaitlistID)
	}
	return c.deliverer.Deliver(ctx, notice)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
