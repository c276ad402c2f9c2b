// Package queue moves waitlist notices through a durable AMQP queue so email
// delivery runs outside the request path.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
)

const publishTimeout = 5 * time.Second

// Publisher publishes waitlist notices. It holds one connection and reopens
// it after a failed publish.
type Publisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, queue string) *Publisher {
	return &Publisher{url: url, queue: queue}
}

// NotifyWaitlist publishes the notice and logs on failure.
func (p *Publisher) NotifyWaitlist(ctx context.Context, notice models.WaitlistNotice) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(pubCtx, notice); err != nil {
		metrics.RecordWaitlistNotification("failed")
		log.Ctx(ctx).Error().
			Err(err).
			Int64("waitlist_id", notice.WaitlistID).
			Int64("user_id", notice.UserID).
			Str("queue", p.queue).
			Msg("Failed to publish waitlist notice")
		return
	}
	metrics.RecordWaitlistNotification("queued")
}

func (p *Publisher) Publish(ctx context.Context, notice models.WaitlistNotice) error {
	msg, err := newPublishing(notice, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reset()
}

// channel returns the open channel, dialing and declaring the queue when
// needed. Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareQueue(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() error {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		if err != nil && !errors.Is(err, amqp.ErrClosed) {
			return err
		}
	}
	return nil
}

func declareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}

func newPublishing(notice models.WaitlistNotice, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(notice)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal notice: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		MessageId:    fmt.Sprintf("waitlist-%d", notice.WaitlistID),
		Body:         body,
	}, nil
}
