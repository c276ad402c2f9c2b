package bookings

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/codr1/Courtside/internal/booking"
	"github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/pricing"
	"github.com/codr1/Courtside/internal/testutil"
)

const saturday = "2024-06-15"

func setupBookingsTest(t *testing.T) (*db.DB, *http.ServeMux) {
	t.Helper()

	database := testutil.NewTestDB(t)
	InitHandlers(booking.NewService(database, pricing.NewEvaluator(database.Queries), nil, booking.DefaultSlotWindow()))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/bookings", HandleCreate)
	mux.HandleFunc("GET /api/v1/bookings", HandleListAll)
	mux.HandleFunc("GET /api/v1/bookings/mine", HandleListMine)
	mux.HandleFunc("GET /api/v1/bookings/stats", HandleStats)
	mux.HandleFunc("POST /api/v1/bookings/check-availability", HandleCheckAvailability)
	mux.HandleFunc("GET /api/v1/bookings/{id}", HandleGet)
	mux.HandleFunc("PUT /api/v1/bookings/{id}/cancel", HandleCancel)
	mux.HandleFunc("PUT /api/v1/bookings/{id}/status", HandleUpdateStatus)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", HandleDelete)
	return database, mux
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func bookingBody(courtID int64, start, end string) map[string]any {
	return map[string]any{
		"courtId":   courtID,
		"date":      saturday,
		"startTime": start,
		"endTime":   end,
	}
}

func TestCreateBookingPricesAndPersists(t *testing.T) {
	database, mux := setupBookingsTest(t)
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtIndoor, 500)
	racket := testutil.SeedEquipment(t, database, models.EquipmentRacket, 4, 100)
	testutil.SeedRule(t, database, models.PricingRule{
		Name:      "Weekend",
		Condition: models.DaysCondition{Days: []time.Weekday{time.Saturday, time.Sunday}},
		Modifier:  models.Modifier{Kind: models.ModifierPercentage, Value: 30},
		Active:    true,
		Priority:  1,
	})

	body := bookingBody(court.ID, "18:00", "19:00")
	body["equipment"] = []map[string]any{{"item": racket.ID, "quantity": 1}, {"item": racket.ID, "quantity": 0}}
	rec := serve(mux, testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings", body), user))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var reservation models.Reservation
	testutil.DecodeEnvelope(t, rec).DecodeData(t, &reservation)
	if reservation.Pricing.CourtFinalPrice != 650 || reservation.Pricing.TotalPrice != 750 {
		t.Fatalf("pricing = %+v", reservation.Pricing)
	}
	if len(reservation.Equipment) != 1 {
		t.Fatalf("equipment = %+v, want zero-quantity line dropped", reservation.Equipment)
	}
	if reservation.UserID != user.ID || reservation.Status != models.StatusConfirmed {
		t.Fatalf("reservation = %+v", reservation)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	database, mux := setupBookingsTest(t)
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 300)
	testutil.SeedReservation(t, database, user.ID, court.ID, saturday, "09:00", "10:00")

	rec := serve(mux, testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings", bookingBody(court.ID, "09:30", "10:30")), user))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	env := testutil.DecodeEnvelope(t, rec)
	if env.ConflictType != "court" || env.Message == "" {
		t.Fatalf("envelope = %+v", env)
	}

	// Touching slot is free.
	rec = serve(mux, testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings", bookingBody(court.ID, "10:00", "11:00")), user))
	if rec.Code != http.StatusCreated {
		t.Fatalf("touching slot status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateBookingRejects(t *testing.T) {
	database, mux := setupBookingsTest(t)
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 300)

	noStart := bookingBody(court.ID, "09:00", "10:00")
	delete(noStart, "startTime")
	badTime := bookingBody(court.ID, "9am", "10:00")

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"anonymous", testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings", bookingBody(court.ID, "09:00", "10:00")), http.StatusUnauthorized},
		{"missing start", testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings", noStart), user), http.StatusBadRequest},
		{"bad time format", testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings", badTime), user), http.StatusBadRequest},
		{"end before start", testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings", bookingBody(court.ID, "10:00", "09:00")), user), http.StatusBadRequest},
		{"unknown court", testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings", bookingBody(court.ID+100, "09:00", "10:00")), user), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, tt.req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestCancelBookingTwice(t *testing.T) {
	database, mux := setupBookingsTest(t)
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 300)
	reservation := testutil.SeedReservation(t, database, user.ID, court.ID, saturday, "09:00", "10:00")

	target := "/api/v1/bookings/" + itoa(reservation.ID) + "/cancel"
	rec := serve(mux, testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPut, target, nil), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("first cancel status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(mux, testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPut, target, nil), user))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second cancel status = %d, want 400", rec.Code)
	}
	if env := testutil.DecodeEnvelope(t, rec); env.Message != "Reservation is already cancelled" {
		t.Fatalf("message = %q", env.Message)
	}
}

func TestGetBookingOwnership(t *testing.T) {
	database, mux := setupBookingsTest(t)
	owner := testutil.SeedUser(t, database, models.RoleUser)
	other := testutil.SeedUser(t, database, models.RoleUser)
	admin := testutil.SeedUser(t, database, models.RoleAdmin)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 300)
	reservation := testutil.SeedReservation(t, database, owner.ID, court.ID, saturday, "09:00", "10:00")

	target := "/api/v1/bookings/" + itoa(reservation.ID)
	for _, tc := range []struct {
		user   models.User
		status int
	}{
		{owner, http.StatusOK},
		{other, http.StatusForbidden},
		{admin, http.StatusOK},
	} {
		rec := serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodGet, target, nil), tc.user))
		if rec.Code != tc.status {
			t.Fatalf("user %d status = %d, want %d", tc.user.ID, rec.Code, tc.status)
		}
	}

	rec := serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings/999999", nil), owner))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
	rec = serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings/abc", nil), owner))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	database, mux := setupBookingsTest(t)
	user := testutil.SeedUser(t, database, models.RoleUser)
	admin := testutil.SeedUser(t, database, models.RoleAdmin)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 300)
	reservation := testutil.SeedReservation(t, database, user.ID, court.ID, saturday, "09:00", "10:00")
	testutil.SeedReservation(t, database, user.ID, court.ID, saturday, "11:00", "12:00")

	rec := serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil), user))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("member list status = %d", rec.Code)
	}

	rec = serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings?court="+itoa(court.ID), nil), admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if env := testutil.DecodeEnvelope(t, rec); env.Count == nil || *env.Count != 2 {
		t.Fatalf("count = %v", env.Count)
	}

	rec = serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings?status=pending", nil), admin))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status filter = %d", rec.Code)
	}

	statusTarget := "/api/v1/bookings/" + itoa(reservation.ID) + "/status"
	rec = serve(mux, testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPut, statusTarget, map[string]string{"status": "completed"}), admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("status update = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = serve(mux, testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPut, statusTarget, map[string]string{"status": "bogus"}), admin))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus status update = %d", rec.Code)
	}

	rec = serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings/stats", nil), admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats db.ReservationStats
	testutil.DecodeEnvelope(t, rec).DecodeData(t, &stats)
	if stats.TotalBookings != 2 || stats.ActiveUsers != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	deleteTarget := "/api/v1/bookings/" + itoa(reservation.ID)
	rec = serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodDelete, deleteTarget, nil), admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodDelete, deleteTarget, nil), admin))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestCheckAvailabilityIsPublic(t *testing.T) {
	database, mux := setupBookingsTest(t)
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 300)
	testutil.SeedReservation(t, database, user.ID, court.ID, saturday, "09:00", "10:00")

	rec := serve(mux, testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings/check-availability", bookingBody(court.ID, "09:00", "10:00")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Available    bool   `json:"available"`
		ConflictType string `json:"conflictType"`
	}
	testutil.DecodeEnvelope(t, rec).DecodeData(t, &result)
	if result.Available || result.ConflictType != "court" {
		t.Fatalf("result = %+v", result)
	}

	rec = serve(mux, testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/bookings/check-availability", bookingBody(court.ID, "10:00", "11:00")))
	testutil.DecodeEnvelope(t, rec).DecodeData(t, &result)
	if !result.Available {
		t.Fatalf("touching slot should be available: %+v", result)
	}
}

func TestListMine(t *testing.T) {
	database, mux := setupBookingsTest(t)
	user := testutil.SeedUser(t, database, models.RoleUser)
	other := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 300)
	testutil.SeedReservation(t, database, user.ID, court.ID, saturday, "09:00", "10:00")
	testutil.SeedReservation(t, database, other.ID, court.ID, saturday, "10:00", "11:00")

	rec := serve(mux, testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings/mine", nil), user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := testutil.DecodeEnvelope(t, rec); env.Count == nil || *env.Count != 1 {
		t.Fatalf("count = %v", env.Count)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
