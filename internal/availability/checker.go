// Package availability decides whether a court, an optional coach, and a set
// of equipment can all be held for one slot.
package availability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
)

const (
	ReasonAvailable        = "All resources are available"
	ReasonCourtBooked      = "Court is already booked for this time slot"
	ReasonCoachBooked      = "Coach is not available for this time slot"
	ReasonEquipmentMissing = "Equipment not found"
	ReasonCheckFailed      = "Error checking availability"
)

// Store is the subset of queries the checker reads.
type Store interface {
	ListActiveReservations(ctx context.Context, query db.ActiveReservationQuery) ([]models.Reservation, error)
	GetEquipment(ctx context.Context, id int64) (models.Equipment, error)
}

type Request struct {
	CourtID   int64
	CoachID   int64
	Equipment []models.EquipmentLine
	Date      models.Date
	Slot      models.Slot
	// ExcludeReservationID leaves one reservation out of every check.
	ExcludeReservationID int64
}

type Result struct {
	Available    bool                `json:"available"`
	Reason       string              `json:"reason"`
	ConflictType models.ConflictType `json:"conflictType,omitempty"`
}

type Checker struct {
	store Store
}

func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// Check runs the court, coach and equipment checks in that order and stops
// at the first conflict. A lookup error is reported as unavailable.
func (c *Checker) Check(ctx context.Context, req Request) Result {
	result, err := c.check(ctx, req)
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Int64("court_id", req.CourtID).
			Int64("coach_id", req.CoachID).
			Str("date", req.Date.String()).
			Str("slot", req.Slot.String()).
			Msg("Availability check failed")
		metrics.RecordConflict("")
		return Result{Available: false, Reason: ReasonCheckFailed}
	}
	if !result.Available {
		metrics.RecordConflict(string(result.ConflictType))
	}
	return result
}

func (c *Checker) check(ctx context.Context, req Request) (Result, error) {
	base := db.ActiveReservationQuery{Date: req.Date, ExcludeID: req.ExcludeReservationID}

	courtQuery := base
	courtQuery.CourtID = req.CourtID
	booked, err := c.overlapping(ctx, courtQuery, req.Slot)
	if err != nil {
		return Result{}, fmt.Errorf("court reservations: %w", err)
	}
	if len(booked) > 0 {
		return conflict(models.ConflictCourt, ReasonCourtBooked), nil
	}

	if req.CoachID != 0 {
		coachQuery := base
		coachQuery.CoachID = req.CoachID
		booked, err := c.overlapping(ctx, coachQuery, req.Slot)
		if err != nil {
			return Result{}, fmt.Errorf("coach reservations: %w", err)
		}
		if len(booked) > 0 {
			return conflict(models.ConflictCoach, ReasonCoachBooked), nil
		}
	}

	for _, line := range mergeLines(req.Equipment) {
		item, err := c.store.GetEquipment(ctx, line.EquipmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return conflict(models.ConflictEquipment, ReasonEquipmentMissing), nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("equipment %d: %w", line.EquipmentID, err)
		}

		equipmentQuery := base
		equipmentQuery.EquipmentID = item.ID
		booked, err := c.overlapping(ctx, equipmentQuery, req.Slot)
		if err != nil {
			return Result{}, fmt.Errorf("equipment %d reservations: %w", item.ID, err)
		}
		committed := 0
		for _, r := range booked {
			committed += r.EquipmentQuantity(item.ID)
		}
		remaining := max(item.TotalQuantity-committed, 0)
		if remaining < line.Quantity {
			return conflict(models.ConflictEquipment,
				fmt.Sprintf("Only %d %s available, %d requested", remaining, item.Name, line.Quantity)), nil
		}
	}

	return Result{Available: true, Reason: ReasonAvailable}, nil
}

func (c *Checker) overlapping(ctx context.Context, query db.ActiveReservationQuery, slot models.Slot) ([]models.Reservation, error) {
	reservations, err := c.store.ListActiveReservations(ctx, query)
	if err != nil {
		return nil, err
	}
	var hits []models.Reservation
	for _, r := range reservations {
		if r.Slot.Overlaps(slot) {
			hits = append(hits, r)
		}
	}
	return hits, nil
}

// mergeLines sums quantities per item so repeated lines count against the
// same inventory, keeping first-seen order. Non-positive lines are dropped.
func mergeLines(lines []models.EquipmentLine) []models.EquipmentLine {
	merged := make([]models.EquipmentLine, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, line := range models.PositiveLines(lines) {
		if i, ok := index[line.EquipmentID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.EquipmentID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

func conflict(kind models.ConflictType, reason string) Result {
	return Result{Available: false, Reason: reason, ConflictType: kind}
}
