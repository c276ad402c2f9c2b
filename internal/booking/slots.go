package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codr1/Courtside/internal/availability"
	"github.com/codr1/Courtside/internal/models"
)

type SlotAvailability struct {
	StartTime models.TimeOfDay `json:"startTime"`
	EndTime   models.TimeOfDay `json:"endTime"`
	Available bool             `json:"available"`
}

// ListSlots walks the bookable day in fixed steps and checks each slot for
// the court alone.
func (s *Service) ListSlots(ctx context.Context, courtID int64, date models.Date) ([]SlotAvailability, error) {
	if date.IsZero() {
		return nil, invalid("date", "Date is required")
	}
	// Inactive courts still list their slots; only unknown ids are rejected.
	court, err := s.db.Queries.GetCourt(ctx, courtID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("court", courtID, msgCourtNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load court %d: %w", courtID, err)
	}

	checker := availability.NewChecker(s.db.Queries)
	open := models.At(s.window.OpenHour, 0)
	closing := models.At(s.window.CloseHour, 0)
	step := models.TimeOfDay(s.window.SlotMinutes)

	slots := []SlotAvailability{}
	for start := open; start+step <= closing; start += step {
		slot := models.Slot{Start: start, End: start + step}
		result := checker.Check(ctx, availability.Request{CourtID: court.ID, Date: date, Slot: slot})
		slots = append(slots, SlotAvailability{
			StartTime: slot.Start,
			EndTime:   slot.End,
			Available: result.Available,
		})
	}
	return slots, nil
}
