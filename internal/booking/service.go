// Package booking composes availability and pricing into reservations and
// runs the cancellation and waitlist flows around them.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/availability"
	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/pricing"
)

const (
	msgCourtNotFound       = "Court not found or inactive"
	msgCoachNotFound       = "Coach not found or inactive"
	msgReservationNotFound = "Reservation not found"
)

// Notifier delivers waitlist notices. Delivery is best-effort and failures
// stay inside the implementation.
type Notifier interface {
	NotifyWaitlist(ctx context.Context, notice models.WaitlistNotice)
}

// Actor is the authenticated caller.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

func (a Actor) owns(userID int64) bool {
	return a.IsAdmin || a.UserID == userID
}

// SlotWindow bounds the bookable day for slot listing.
type SlotWindow struct {
	OpenHour    int
	CloseHour   int
	SlotMinutes int
}

func DefaultSlotWindow() SlotWindow {
	return SlotWindow{OpenHour: 6, CloseHour: 22, SlotMinutes: 60}
}

type Service struct {
	db       *db.DB
	pricing  *pricing.Evaluator
	notifier Notifier
	window   SlotWindow
	now      func() time.Time
}

func NewService(database *db.DB, evaluator *pricing.Evaluator, notifier Notifier, window SlotWindow) *Service {
	if window.SlotMinutes <= 0 || window.OpenHour < 0 || window.CloseHour > 23 || window.CloseHour <= window.OpenHour {
		window = DefaultSlotWindow()
	}
	return &Service{
		db:       database,
		pricing:  evaluator,
		notifier: notifier,
		window:   window,
		now:      time.Now,
	}
}

type ReservationRequest struct {
	UserID    int64
	CourtID   int64
	CoachID   *int64
	Equipment []models.EquipmentLine
	Date      models.Date
	Slot      models.Slot
	Notes     string
}

func (r ReservationRequest) validate() error {
	if r.UserID == 0 {
		return invalid("user", "User is required")
	}
	if r.CourtID == 0 {
		return invalid("court", "Court is required")
	}
	return validateSlot(r.Date, r.Slot)
}

func validateSlot(date models.Date, slot models.Slot) error {
	if date.IsZero() {
		return invalid("date", "Date is required")
	}
	if _, err := models.NewSlot(slot.Start, slot.End); err != nil {
		return invalid("endTime", "End time must be after start time")
	}
	return nil
}

// CreateReservation validates the court and coach, checks availability and
// prices the booking before persisting it. The check and the insert share
// one immediate transaction.
func (s *Service) CreateReservation(ctx context.Context, req ReservationRequest) (models.Reservation, error) {
	logger := log.Ctx(ctx)
	if err := req.validate(); err != nil {
		return models.Reservation{}, err
	}

	var created models.Reservation
	err := s.db.RunInTx(ctx, func(tx *db.DB) error {
		court, coach, err := resolveCourtAndCoach(ctx, tx.Queries, req.CourtID, req.CoachID)
		if err != nil {
			return err
		}

		lines := models.PositiveLines(req.Equipment)
		result := availability.NewChecker(tx.Queries).Check(ctx, availability.Request{
			CourtID:   court.ID,
			CoachID:   coachIDOf(coach),
			Equipment: lines,
			Date:      req.Date,
			Slot:      req.Slot,
		})
		if !result.Available {
			return &ConflictError{Reason: result.Reason, ConflictType: result.ConflictType}
		}

		breakdown := s.price(ctx, tx.Queries, court, coach, lines, req.Date, req.Slot.Start)
		created, err = tx.Queries.CreateReservation(ctx, models.Reservation{
			UserID:    req.UserID,
			CourtID:   court.ID,
			CoachID:   req.CoachID,
			Equipment: lines,
			Date:      req.Date,
			Slot:      req.Slot,
			Status:    models.StatusConfirmed,
			Pricing:   breakdown,
			Notes:     req.Notes,
		})
		return err
	})
	if err != nil {
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			metrics.RecordReservation("conflict")
		case errors.Is(err, ErrNotFound):
			metrics.RecordReservation("not_found")
		default:
			metrics.RecordReservation("error")
			logger.Error().
				Err(err).
				Int64("user_id", req.UserID).
				Int64("court_id", req.CourtID).
				Msg("Failed to create reservation")
		}
		return models.Reservation{}, err
	}

	metrics.RecordReservation("created")
	logger.Info().
		Int64("reservation_id", created.ID).
		Int64("user_id", created.UserID).
		Int64("court_id", created.CourtID).
		Str("date", created.Date.String()).
		Str("slot", created.Slot.String()).
		Float64("total_price", created.Pricing.TotalPrice).
		Msg("Reservation created")
	return created, nil
}

type QuoteRequest struct {
	CourtID   int64
	CoachID   *int64
	Equipment []models.EquipmentLine
	Date      models.Date
	StartTime models.TimeOfDay
}

// QuotePrice prices a booking without reserving it, using the same rules as
// CreateReservation.
func (s *Service) QuotePrice(ctx context.Context, req QuoteRequest) (models.PriceBreakdown, error) {
	if req.CourtID == 0 {
		return models.PriceBreakdown{}, invalid("court", "Court is required")
	}
	if req.Date.IsZero() {
		return models.PriceBreakdown{}, invalid("date", "Date is required")
	}
	if !req.StartTime.Valid() {
		return models.PriceBreakdown{}, invalid("startTime", "Start time is invalid")
	}
	court, coach, err := resolveCourtAndCoach(ctx, s.db.Queries, req.CourtID, req.CoachID)
	if err != nil {
		return models.PriceBreakdown{}, err
	}
	return s.price(ctx, s.db.Queries, court, coach, models.PositiveLines(req.Equipment), req.Date, req.StartTime), nil
}

// CheckAvailability runs the availability checker on its own.
func (s *Service) CheckAvailability(ctx context.Context, req availability.Request) (availability.Result, error) {
	if req.CourtID == 0 {
		return availability.Result{}, invalid("court", "Court is required")
	}
	if err := validateSlot(req.Date, req.Slot); err != nil {
		return availability.Result{}, err
	}
	req.Equipment = models.PositiveLines(req.Equipment)
	return availability.NewChecker(s.db.Queries).Check(ctx, req), nil
}

type equipmentReader interface {
	GetEquipment(ctx context.Context, id int64) (models.Equipment, error)
}

// price adds coach and equipment fees to the evaluated court price. Equipment
// that no longer resolves is left out of the fee.
func (s *Service) price(ctx context.Context, q equipmentReader, court models.Court, coach *models.Coach, lines []models.EquipmentLine, date models.Date, start models.TimeOfDay) models.PriceBreakdown {
	quote := s.pricing.Evaluate(ctx, court.BasePrice, court.Category, date, start)

	equipmentFee := 0.0
	for _, line := range lines {
		item, err := q.GetEquipment(ctx, line.EquipmentID)
		if err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Int64("equipment_id", line.EquipmentID).
				Msg("Skipping unresolved equipment in fee")
			continue
		}
		equipmentFee += item.PricePerHour * float64(line.Quantity)
	}

	coachFee := 0.0
	if coach != nil {
		coachFee = coach.HourlyRate
	}

	return models.PriceBreakdown{
		CourtBasePrice:  quote.BasePrice,
		CourtFinalPrice: quote.FinalPrice,
		AppliedRules:    quote.AppliedRules,
		CoachFee:        coachFee,
		EquipmentFee:    models.RoundPrice(equipmentFee),
		TotalPrice:      models.RoundPrice(quote.FinalPrice + equipmentFee + coachFee),
	}
}

type catalogReader interface {
	GetCourt(ctx context.Context, id int64) (models.Court, error)
	GetCoach(ctx context.Context, id int64) (models.Coach, error)
}

func resolveCourt(ctx context.Context, q catalogReader, courtID int64) (models.Court, error) {
	court, err := q.GetCourt(ctx, courtID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !court.Active) {
		return models.Court{}, notFound("court", courtID, msgCourtNotFound)
	}
	if err != nil {
		return models.Court{}, fmt.Errorf("load court %d: %w", courtID, err)
	}
	return court, nil
}

func resolveCourtAndCoach(ctx context.Context, q catalogReader, courtID int64, coachID *int64) (models.Court, *models.Coach, error) {
	court, err := resolveCourt(ctx, q, courtID)
	if err != nil {
		return models.Court{}, nil, err
	}
	if coachID == nil {
		return court, nil, nil
	}
	coach, err := q.GetCoach(ctx, *coachID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !coach.Active) {
		return models.Court{}, nil, notFound("coach", *coachID, msgCoachNotFound)
	}
	if err != nil {
		return models.Court{}, nil, fmt.Errorf("load coach %d: %w", *coachID, err)
	}
	return court, &coach, nil
}

func coachIDOf(coach *models.Coach) int64 {
	if coach == nil {
		return 0
	}
	return coach.ID
}
