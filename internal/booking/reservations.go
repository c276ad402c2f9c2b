package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/availability"
	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
)

func loadReservation(ctx context.Context, q *db.Queries, id int64) (models.Reservation, error) {
	reservation, err := q.GetReservation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reservation{}, notFound("reservation", id, msgReservationNotFound)
	}
	if err != nil {
		return models.Reservation{}, fmt.Errorf("load reservation %d: %w", id, err)
	}
	return reservation, nil
}

// GetReservation returns a reservation visible to its owner or an admin.
func (s *Service) GetReservation(ctx context.Context, actor Actor, id int64) (models.Reservation, error) {
	reservation, err := loadReservation(ctx, s.db.Queries, id)
	if err != nil {
		return models.Reservation{}, err
	}
	if !actor.owns(reservation.UserID) {
		return models.Reservation{}, ErrForbidden
	}
	return reservation, nil
}

// ListMyReservations lists the actor's reservations, latest slot first.
func (s *Service) ListMyReservations(ctx context.Context, actor Actor) ([]models.Reservation, error) {
	return s.db.Queries.ListReservations(ctx, db.ReservationFilter{UserID: actor.UserID})
}

type ReservationFilter struct {
	Status  string
	Date    models.Date
	CourtID int64
}

// ListReservations lists every reservation for an admin, newest first.
func (s *Service) ListReservations(ctx context.Context, actor Actor, filter ReservationFilter) ([]models.Reservation, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	query := db.ReservationFilter{
		CourtID:     filter.CourtID,
		Date:        filter.Date,
		NewestFirst: true,
	}
	if filter.Status != "" {
		status, err := models.ParseReservationStatus(filter.Status)
		if err != nil {
			return nil, invalid("status", "Invalid status")
		}
		query.Status = status
	}
	return s.db.Queries.ListReservations(ctx, query)
}

// CancelReservation cancels a reservation held by the actor, or any
// reservation for an admin. The first user waiting for the exact freed slot
// is notified once the cancellation has committed.
func (s *Service) CancelReservation(ctx context.Context, actor Actor, id int64) (models.Reservation, error) {
	var cancelled models.Reservation
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		reservation, err := loadReservation(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if !actor.owns(reservation.UserID) {
			return ErrForbidden
		}
		if reservation.Status == models.StatusCancelled {
			return ErrAlreadyCancelled
		}
		if _, err := tx.Queries.UpdateReservationStatus(ctx, id, models.StatusCancelled); err != nil {
			return err
		}
		reservation.Status = models.StatusCancelled
		cancelled = reservation
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	metrics.RecordCancellation()
	log.Ctx(ctx).Info().
		Int64("reservation_id", cancelled.ID).
		Int64("user_id", actor.UserID).
		Bool("by_admin", actor.IsAdmin && actor.UserID != cancelled.UserID).
		Msg("Reservation cancelled")

	s.promoteWaitlist(ctx, cancelled)
	return cancelled, nil
}

// UpdateReservationStatus sets any valid status for an admin. Cancelling goes
// through CancelReservation so the waitlist is notified. Moving a cancelled
// reservation back to an active status rechecks availability.
func (s *Service) UpdateReservationStatus(ctx context.Context, actor Actor, id int64, rawStatus string) (models.Reservation, error) {
	if !actor.IsAdmin {
		return models.Reservation{}, ErrForbidden
	}
	status, err := models.ParseReservationStatus(rawStatus)
	if err != nil {
		return models.Reservation{}, invalid("status", "Invalid status")
	}
	if status == models.StatusCancelled {
		return s.CancelReservation(ctx, actor, id)
	}

	var updated models.Reservation
	err = s.db.RunInTx(ctx, func(tx *db.DB) error {
		reservation, err := loadReservation(ctx, tx.Queries, id)
		if err != nil {
			return err
		}
		if reservation.Status == models.StatusCancelled {
			// Reviving a cancelled reservation must not double-book a slot
			// taken since the cancellation.
			result := availability.NewChecker(tx.Queries).Check(ctx, availability.Request{
				CourtID:              reservation.CourtID,
				CoachID:              coachIDOrZero(reservation.CoachID),
				Equipment:            reservation.Equipment,
				Date:                 reservation.Date,
				Slot:                 reservation.Slot,
				ExcludeReservationID: id,
			})
			if !result.Available {
				return &ConflictError{Reason: result.Reason, ConflictType: result.ConflictType}
			}
		}
		if _, err := tx.Queries.UpdateReservationStatus(ctx, id, status); err != nil {
			return err
		}
		reservation.Status = status
		updated = reservation
		return nil
	})
	if err != nil {
		return models.Reservation{}, err
	}

	log.Ctx(ctx).Info().
		Int64("reservation_id", id).
		Str("status", string(status)).
		Msg("Reservation status updated")
	return updated, nil
}

// DeleteReservation removes a reservation outright. Admin only.
func (s *Service) DeleteReservation(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	deleted, err := s.db.Queries.DeleteReservation(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return notFound("reservation", id, msgReservationNotFound)
	}
	log.Ctx(ctx).Info().Int64("reservation_id", id).Msg("Reservation deleted")
	return nil
}

// Stats summarizes non-cancelled reservations. Admin only.
func (s *Service) Stats(ctx context.Context, actor Actor) (db.ReservationStats, error) {
	if !actor.IsAdmin {
		return db.ReservationStats{}, ErrForbidden
	}
	return s.db.Queries.GetReservationStats(ctx, models.DateOf(s.now()))
}

func coachIDOrZero(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
