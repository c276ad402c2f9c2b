package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

func ParseReservationStatus(raw string) (ReservationStatus, error) {
	switch ReservationStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("invalid status %q", raw)
	}
}

// ConflictType names the resource that made a slot unavailable.
type ConflictType string

const (
	ConflictNone      ConflictType = ""
	ConflictCourt     ConflictType = "court"
	ConflictCoach     ConflictType = "coach"
	ConflictEquipment ConflictType = "equipment"
)

// EquipmentLine is one requested equipment item and its quantity.
type EquipmentLine struct {
	EquipmentID int64 `json:"item"`
	Quantity    int   `json:"quantity"`
}

// PositiveLines drops lines with a quantity of zero or less.
func PositiveLines(lines []EquipmentLine) []EquipmentLine {
	kept := make([]EquipmentLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	return kept
}

type AppliedRule struct {
	RuleName string  `json:"ruleName"`
	Modifier float64 `json:"modifier"`
}

type PriceBreakdown struct {
	CourtBasePrice  float64       `json:"courtBasePrice"`
	CourtFinalPrice float64       `json:"courtFinalPrice"`
	AppliedRules    []AppliedRule `json:"appliedRules"`
	CoachFee        float64       `json:"coachFee"`
	EquipmentFee    float64       `json:"equipmentFee"`
	TotalPrice      float64       `json:"totalPrice"`
}

type Reservation struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"userId"`
	CourtID   int64             `json:"courtId"`
	CoachID   *int64            `json:"coachId"`
	Equipment []EquipmentLine   `json:"equipment"`
	Date      Date              `json:"date"`
	Slot      Slot              `json:"slot"`
	Status    ReservationStatus `json:"status"`
	Pricing   PriceBreakdown    `json:"pricingBreakdown"`
	Notes     string            `json:"notes"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// HasCoach reports whether the reservation holds coachID.
func (r Reservation) HasCoach(coachID int64) bool {
	return r.CoachID != nil && *r.CoachID == coachID
}

// EquipmentQuantity sums the quantity held for equipmentID across lines.
func (r Reservation) EquipmentQuantity(equipmentID int64) int {
	total := 0
	for _, line := range r.Equipment {
		if line.EquipmentID == equipmentID {
			total += line.Quantity
		}
	}
	return total
}

type WaitlistStatus string

const (
	WaitlistWaiting  WaitlistStatus = "waiting"
	WaitlistNotified WaitlistStatus = "notified"
	WaitlistExpired  WaitlistStatus = "expired"
)

type WaitlistEntry struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"userId"`
	CourtID    int64          `json:"courtId"`
	Date       Date           `json:"date"`
	Slot       Slot           `json:"slot"`
	Status     WaitlistStatus `json:"status"`
	NotifiedAt *time.Time     `json:"notifiedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// RoundPrice rounds to two decimal places, half away from zero.
func RoundPrice(value float64) float64 {
	return math.Round(value*100) / 100
}

// WaitlistNotice tells a waiting user that their slot was freed.
type WaitlistNotice struct {
	WaitlistID int64  `json:"waitlistId"`
	UserID     int64  `json:"userId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	CourtID    int64  `json:"courtId"`
	CourtName  string `json:"courtName"`
	Date       Date   `json:"date"`
	Slot       Slot   `json:"slot"`
}
