package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
)

const waitlistEmailTimeout = 5 * time.Second

// WaitlistNotifier emails freed-slot notices.
type WaitlistNotifier struct {
	sender  EmailSender
	timeout time.Duration
}

func NewWaitlistNotifier(sender EmailSender) *WaitlistNotifier {
	return &WaitlistNotifier{sender: sender, timeout: waitlistEmailTimeout}
}

// NotifyWaitlist sends in the background. The send outlives the caller's
// request context but not the timeout.
func (n *WaitlistNotifier) NotifyWaitlist(ctx context.Context, notice models.WaitlistNotice) {
	if n == nil || n.sender == nil {
		return
	}
	if strings.TrimSpace(notice.Email) == "" {
		log.Ctx(ctx).Warn().
			Int64("waitlist_id", notice.WaitlistID).
			Int64("user_id", notice.UserID).
			Msg("Skipping waitlist email without recipient")
		return
	}

	go func() {
		sendCtx, cancel := newEmailContext(ctx, n.timeout)
		defer cancel()
		_ = n.Deliver(sendCtx, notice)
	}()
}

// Deliver sends synchronously and reports the outcome.
func (n *WaitlistNotifier) Deliver(ctx context.Context, notice models.WaitlistNotice) error {
	recipient := strings.TrimSpace(notice.Email)
	if recipient == "" {
		return fmt.Errorf("waitlist entry %d has no recipient", notice.WaitlistID)
	}
	message := BuildWaitlistEmail(notice)
	if err := n.sender.Send(ctx, recipient, message.Subject, message.Body); err != nil {
		metrics.RecordWaitlistNotification("failed")
		log.Ctx(ctx).Error().
			Err(err).
			Int64("waitlist_id", notice.WaitlistID).
			Int64("user_id", notice.UserID).
			Msg("Failed to send waitlist email")
		return err
	}
	metrics.RecordWaitlistNotification("sent")
	return nil
}

func newEmailContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
