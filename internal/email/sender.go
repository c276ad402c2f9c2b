package email

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// EmailSender provides a testable abstraction over delivery.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogSender writes messages to the log instead of delivering them. It backs
// the "log" notification driver in development.
type LogSender struct {
	From string
}

func (s LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	log.Ctx(ctx).Info().
		Str("from", s.From).
		Str("recipient", recipient).
		Str("subject", subject).
		Int("body_lines", strings.Count(body, "\n")+1).
		Msg("Email delivery skipped by log driver")
	return nil
}
