package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/testutil"
)

const testDate = "2024-06-15"

func slot(start, end string) models.Slot {
	return models.Slot{Start: models.MustTimeOfDay(start), End: models.MustTimeOfDay(end)}
}

func courtRequest(courtID int64, start, end string) Request {
	return Request{CourtID: courtID, Date: models.MustDate(testDate), Slot: slot(start, end)}
}

func TestCheckCourtOverlap(t *testing.T) {
	database := testutil.NewTestDB(t)
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	testutil.SeedReservation(t, database, user.ID, court.ID, testDate, "09:00", "10:00")
	checker := NewChecker(database.Queries)

	tests := []struct {
		name       string
		start, end string
		available  bool
	}{
		{"touching after", "10:00", "11:00", true},
		{"touching before", "08:00", "09:00", true},
		{"partial overlap", "09:30", "10:30", false},
		{"identical", "09:00", "10:00", false},
		{"contains existing", "08:00", "12:00", false},
		{"inside existing", "09:15", "09:45", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := checker.Check(context.Background(), courtRequest(court.ID, tc.start, tc.end))
			if result.Available != tc.available {
				t.Fatalf("available = %v, want %v (%s)", result.Available, tc.available, result.Reason)
			}
			if tc.available {
				if result.Reason != ReasonAvailable || result.ConflictType != models.ConflictNone {
					t.Fatalf("unexpected available result: %+v", result)
				}
				return
			}
			if result.ConflictType != models.ConflictCourt || result.Reason != ReasonCourtBooked {
				t.Fatalf("unexpected conflict: %+v", result)
			}
		})
	}
}

func TestCheckIgnoresCancelledOtherDatesAndExcluded(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 300)
	cancelled := testutil.SeedReservation(t, database, user.ID, court.ID, testDate, "09:00", "10:00")
	if _, err := database.Queries.UpdateReservationStatus(ctx, cancelled.ID, models.StatusCancelled); err != nil {
		t.Fatalf("cancel reservation: %v", err)
	}
	testutil.SeedReservation(t, database, user.ID, court.ID, "2024-06-16", "11:00", "12:00")
	kept := testutil.SeedReservation(t, database, user.ID, court.ID, testDate, "14:00", "15:00")
	checker := NewChecker(database.Queries)

	if result := checker.Check(ctx, courtRequest(court.ID, "09:00", "10:00")); !result.Available {
		t.Fatalf("cancelled reservation blocked the slot: %+v", result)
	}
	if result := checker.Check(ctx, courtRequest(court.ID, "11:00", "12:00")); !result.Available {
		t.Fatalf("reservation on another date blocked the slot: %+v", result)
	}
	if result := checker.Check(ctx, courtRequest(court.ID, "14:30", "15:30")); result.Available {
		t.Fatalf("expected 14:30 to conflict with reservation %d", kept.ID)
	}

	req := courtRequest(court.ID, "14:30", "15:30")
	req.ExcludeReservationID = kept.ID
	if result := checker.Check(ctx, req); !result.Available {
		t.Fatalf("excluded reservation still blocked the slot: %+v", result)
	}
}

func TestCheckCoachConflictAcrossCourts(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, database, models.RoleUser)
	courtA := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	courtB := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	coach := testutil.SeedCoach(t, database, 200)
	if _, err := database.Queries.CreateReservation(ctx, models.Reservation{
		UserID:  user.ID,
		CourtID: courtA.ID,
		CoachID: &coach.ID,
		Date:    models.MustDate(testDate),
		Slot:    slot("17:00", "18:00"),
	}); err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	checker := NewChecker(database.Queries)

	req := courtRequest(courtB.ID, "17:30", "18:30")
	req.CoachID = coach.ID
	result := checker.Check(ctx, req)
	if result.Available || result.ConflictType != models.ConflictCoach || result.Reason != ReasonCoachBooked {
		t.Fatalf("expected coach conflict, got %+v", result)
	}

	req.CoachID = 0
	if result := checker.Check(ctx, req); !result.Available {
		t.Fatalf("expected court B to be free without the coach: %+v", result)
	}
}

func TestCheckCourtConflictWinsOverCoach(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	coach := testutil.SeedCoach(t, database, 200)
	if _, err := database.Queries.CreateReservation(ctx, models.Reservation{
		UserID:  user.ID,
		CourtID: court.ID,
		CoachID: &coach.ID,
		Date:    models.MustDate(testDate),
		Slot:    slot("17:00", "18:00"),
	}); err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	req := courtRequest(court.ID, "17:00", "18:00")
	req.CoachID = coach.ID
	if result := NewChecker(database.Queries).Check(ctx, req); result.ConflictType != models.ConflictCourt {
		t.Fatalf("expected court conflict first, got %+v", result)
	}
}

// Coach weekly windows are stored but not consulted; only overlapping
// reservations make a coach unavailable.
func TestCheckIgnoresCoachWeeklyWindows(t *testing.T) {
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	coach := testutil.SeedCoach(t, database, 200, models.AvailabilityWindow{
		DayOfWeek: time.Monday,
		StartTime: models.MustTimeOfDay("09:00"),
		EndTime:   models.MustTimeOfDay("10:00"),
	})

	req := courtRequest(court.ID, "15:00", "16:00")
	req.CoachID = coach.ID
	if result := NewChecker(database.Queries).Check(context.Background(), req); !result.Available {
		t.Fatalf("expected coach outside weekly window to be bookable, got %+v", result)
	}
}

func TestCheckEquipmentInventory(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, database, models.RoleUser)
	courtA := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	courtB := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	racket := testutil.SeedEquipment(t, database, models.EquipmentRacket, 4, 100)
	testutil.SeedReservation(t, database, user.ID, courtA.ID, testDate, "09:00", "10:00",
		models.EquipmentLine{EquipmentID: racket.ID, Quantity: 3})
	checker := NewChecker(database.Queries)

	withRackets := func(start, end string, quantity int) Request {
		req := courtRequest(courtB.ID, start, end)
		req.Equipment = []models.EquipmentLine{{EquipmentID: racket.ID, Quantity: quantity}}
		return req
	}

	result := checker.Check(ctx, withRackets("09:30", "10:30", 2))
	if result.Available || result.ConflictType != models.ConflictEquipment {
		t.Fatalf("expected equipment conflict, got %+v", result)
	}
	if want := "Only 1 " + racket.Name + " available, 2 requested"; result.Reason != want {
		t.Fatalf("reason = %q, want %q", result.Reason, want)
	}

	if result := checker.Check(ctx, withRackets("09:30", "10:30", 1)); !result.Available {
		t.Fatalf("expected last racket to be available, got %+v", result)
	}
	if result := checker.Check(ctx, withRackets("10:00", "11:00", 4)); !result.Available {
		t.Fatalf("expected full inventory after the overlapping booking, got %+v", result)
	}
}

func TestCheckEquipmentMergesRepeatedLines(t *testing.T) {
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	shoes := testutil.SeedEquipment(t, database, models.EquipmentShoes, 3, 50)

	req := courtRequest(court.ID, "09:00", "10:00")
	req.Equipment = []models.EquipmentLine{
		{EquipmentID: shoes.ID, Quantity: 2},
		{EquipmentID: shoes.ID, Quantity: 2},
	}
	result := NewChecker(database.Queries).Check(context.Background(), req)
	if result.Available || result.ConflictType != models.ConflictEquipment {
		t.Fatalf("expected repeated lines to exceed inventory, got %+v", result)
	}
}

func TestCheckEquipmentNotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, models.CourtIndoor, 500)

	req := courtRequest(court.ID, "09:00", "10:00")
	req.Equipment = []models.EquipmentLine{{EquipmentID: 9999, Quantity: 1}}
	result := NewChecker(database.Queries).Check(context.Background(), req)
	if result.Available || result.ConflictType != models.ConflictEquipment || result.Reason != ReasonEquipmentMissing {
		t.Fatalf("expected missing equipment conflict, got %+v", result)
	}
}

func TestCheckFailsClosedOnStoreError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()
	mock.ExpectQuery("SELECT (.+) FROM reservations").WillReturnError(errors.New("database is locked"))

	result := NewChecker(db.NewQueries(conn)).Check(context.Background(), courtRequest(1, "09:00", "10:00"))

	if result.Available {
		t.Fatalf("expected store failure to report unavailable")
	}
	if result.Reason != ReasonCheckFailed || result.ConflictType != models.ConflictNone {
		t.Fatalf("unexpected failure result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

type failingEquipmentStore struct {
	Store
}

func (failingEquipmentStore) GetEquipment(context.Context, int64) (models.Equipment, error) {
	return models.Equipment{}, errors.New("connection reset")
}

func TestCheckFailsClosedOnEquipmentLookupError(t *testing.T) {
	database := testutil.NewTestDB(t)
	court := testutil.SeedCourt(t, database, models.CourtIndoor, 500)

	req := courtRequest(court.ID, "09:00", "10:00")
	req.Equipment = []models.EquipmentLine{{EquipmentID: 1, Quantity: 1}}
	result := NewChecker(failingEquipmentStore{Store: database.Queries}).Check(context.Background(), req)

	if result.Available || result.Reason != ReasonCheckFailed || result.ConflictType != models.ConflictNone {
		t.Fatalf("expected fail-closed result, got %+v", result)
	}
}
