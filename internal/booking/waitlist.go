package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
)

type WaitlistRequest struct {
	CourtID int64
	Date    models.Date
	Slot    models.Slot
}

// JoinWaitlist queues the actor for an exact court slot. A user holds at most
// one waiting entry per slot.
func (s *Service) JoinWaitlist(ctx context.Context, actor Actor, req WaitlistRequest) (models.WaitlistEntry, error) {
	if req.CourtID == 0 {
		return models.WaitlistEntry{}, invalid("court", "Court is required")
	}
	if err := validateSlot(req.Date, req.Slot); err != nil {
		return models.WaitlistEntry{}, err
	}

	var entry models.WaitlistEntry
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		if _, err := resolveCourt(ctx, tx.Queries, req.CourtID); err != nil {
			return err
		}
		exists, err := tx.Queries.HasWaitingEntry(ctx, actor.UserID, req.CourtID, req.Date, req.Slot)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyOnWaitlist
		}
		entry, err = tx.Queries.CreateWaitlistEntry(ctx, models.WaitlistEntry{
			UserID:  actor.UserID,
			CourtID: req.CourtID,
			Date:    req.Date,
			Slot:    req.Slot,
		})
		return err
	})
	if err != nil {
		return models.WaitlistEntry{}, err
	}

	log.Ctx(ctx).Info().
		Int64("waitlist_id", entry.ID).
		Int64("user_id", entry.UserID).
		Int64("court_id", entry.CourtID).
		Str("date", entry.Date.String()).
		Str("slot", entry.Slot.String()).
		Msg("Joined waitlist")
	return entry, nil
}

func (s *Service) ListMyWaitlist(ctx context.Context, actor Actor) ([]models.WaitlistEntry, error) {
	return s.db.Queries.ListWaitlistEntriesForUser(ctx, actor.UserID)
}

// ExpireWaitlist expires entries whose slot has started.
func (s *Service) ExpireWaitlist(ctx context.Context) (int64, error) {
	expired, err := s.db.Queries.ExpireWaitlistEntries(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.RecordWaitlistExpired(expired)
	return expired, nil
}

// promoteWaitlist marks the earliest entry waiting for the reservation's
// exact slot as notified and hands it to the notifier. Failures are logged
// and never undo the cancellation.
func (s *Service) promoteWaitlist(ctx context.Context, reservation models.Reservation) {
	logger := log.Ctx(ctx).With().
		Int64("reservation_id", reservation.ID).
		Int64("court_id", reservation.CourtID).
		Logger()

	entry, err := s.db.Queries.FirstWaitingEntry(ctx, reservation.CourtID, reservation.Date, reservation.Slot)
	if errors.Is(err, sql.ErrNoRows) {
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to look up waitlist")
		return
	}

	marked, err := s.db.Queries.MarkWaitlistNotified(ctx, entry.ID, s.now())
	if err != nil {
		logger.Error().Err(err).Int64("waitlist_id", entry.ID).Msg("Failed to mark waitlist entry notified")
		return
	}
	if marked == 0 {
		// Another cancellation claimed it first.
		return
	}

	user, err := s.db.Queries.GetUserByID(ctx, entry.UserID)
	if err != nil {
		logger.Error().Err(err).Int64("waitlist_id", entry.ID).Int64("user_id", entry.UserID).Msg("Failed to load waitlisted user")
		metrics.RecordWaitlistNotification("failed")
		return
	}
	court, err := s.db.Queries.GetCourt(ctx, entry.CourtID)
	if err != nil {
		logger.Error().Err(err).Int64("waitlist_id", entry.ID).Msg("Failed to load waitlisted court")
		metrics.RecordWaitlistNotification("failed")
		return
	}

	logger.Info().
		Int64("waitlist_id", entry.ID).
		Int64("user_id", user.ID).
		Msg("Waitlist entry notified")

	if s.notifier == nil {
		return
	}
	s.notifier.NotifyWaitlist(ctx, models.WaitlistNotice{
		WaitlistID: entry.ID,
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		CourtID:    court.ID,
		CourtName:  court.Name,
		Date:       entry.Date,
		Slot:       entry.Slot,
	})
}
