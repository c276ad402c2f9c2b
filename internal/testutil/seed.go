package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
)

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

func SeedUser(t *testing.T, database *db.DB, role models.Role) models.User {
	t.Helper()

	n := next()
	user, err := database.Queries.CreateUser(context.Background(), models.User{
		Name:  fmt.Sprintf("Player %d", n),
		Email: fmt.Sprintf("player%d@example.com", n),
		Role:  role,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func SeedCourt(t *testing.T, database *db.DB, category models.CourtCategory, basePrice float64) models.Court {
	t.Helper()

	court, err := database.Queries.CreateCourt(context.Background(), models.Court{
		Name:      fmt.Sprintf("Court %d", next()),
		Category:  category,
		BasePrice: basePrice,
		Active:    true,
	})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}
	return court
}

func SeedCoach(t *testing.T, database *db.DB, hourlyRate float64, windows ...models.AvailabilityWindow) models.Coach {
	t.Helper()

	n := next()
	coach, err := database.Queries.CreateCoach(context.Background(), models.Coach{
		Name:         fmt.Sprintf("Coach %d", n),
		Email:        fmt.Sprintf("coach%d@example.com", n),
		HourlyRate:   hourlyRate,
		Active:       true,
		Availability: windows,
	})
	if err != nil {
		t.Fatalf("seed coach: %v", err)
	}
	return coach
}

func SeedEquipment(t *testing.T, database *db.DB, category models.EquipmentCategory, total int, pricePerHour float64) models.Equipment {
	t.Helper()

	item, err := database.Queries.CreateEquipment(context.Background(), models.Equipment{
		Name:          fmt.Sprintf("Item %d", next()),
		Category:      category,
		TotalQuantity: total,
		PricePerHour:  pricePerHour,
		Active:        true,
	})
	if err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
	return item
}

func SeedRule(t *testing.T, database *db.DB, rule models.PricingRule) models.PricingRule {
	t.Helper()

	rule, err := database.Queries.CreatePricingRule(context.Background(), rule)
	if err != nil {
		t.Fatalf("seed pricing rule: %v", err)
	}
	return rule
}

// SeedReservation inserts a confirmed reservation directly, bypassing the
// availability check.
func SeedReservation(t *testing.T, database *db.DB, userID, courtID int64, date, start, end string, lines ...models.EquipmentLine) models.Reservation {
	t.Helper()

	reservation, err := database.Queries.CreateReservation(context.Background(), models.Reservation{
		UserID:    userID,
		CourtID:   courtID,
		Equipment: lines,
		Date:      models.MustDate(date),
		Slot:      models.Slot{Start: models.MustTimeOfDay(start), End: models.MustTimeOfDay(end)},
		Status:    models.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	return reservation
}

func SeedWaitlistEntry(t *testing.T, database *db.DB, userID, courtID int64, date, start, end string) models.WaitlistEntry {
	t.Helper()

	entry, err := database.Queries.CreateWaitlistEntry(context.Background(), models.WaitlistEntry{
		UserID:  userID,
		CourtID: courtID,
		Date:    models.MustDate(date),
		Slot:    models.Slot{Start: models.MustTimeOfDay(start), End: models.MustTimeOfDay(end)},
	})
	if err != nil {
		t.Fatalf("seed waitlist entry: %v", err)
	}
	return entry
}
