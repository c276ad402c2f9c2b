package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	WaitlistExpiryJobName = "waitlist-expiry"
	waitlistExpiryTimeout = 30 * time.Second
)

// WaitlistExpirer expires waitlist entries whose slot has started.
type WaitlistExpirer interface {
	ExpireWaitlist(ctx context.Context) (int64, error)
}

// RegisterWaitlistExpiry schedules the expiry sweep. Each run gets its own
// bounded context derived from base.
func RegisterWaitlistExpiry(s *Service, base context.Context, expirer WaitlistExpirer, cronExpr string) error {
	_, err := s.AddJob(WaitlistExpiryJobName, cronExpr, func() error {
		return ExpireWaitlist(base, expirer)
	})
	return err
}

func ExpireWaitlist(base context.Context, expirer WaitlistExpirer) error {
	ctx, cancel := context.WithTimeout(base, waitlistExpiryTimeout)
	defer cancel()

	expired, err := expirer.ExpireWaitlist(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		log.Ctx(ctx).Info().Int64("expired", expired).Msg("Expired stale waitlist entries")
	}
	return nil
}
