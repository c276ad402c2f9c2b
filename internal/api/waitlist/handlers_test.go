package waitlist

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codr1/Courtside/internal/booking"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/pricing"
	"github.com/codr1/Courtside/internal/testutil"
)

func TestJoinWaitlist(t *testing.T) {
	database := testutil.NewTestDB(t)
	InitHandlers(booking.NewService(database, pricing.NewEvaluator(database.Queries), nil, booking.DefaultSlotWindow()))
	user := testutil.SeedUser(t, database, models.RoleUser)
	court := testutil.SeedCourt(t, database, models.CourtOutdoor, 30)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/waitlist", HandleJoin)
	mux.HandleFunc("GET /api/v1/waitlist/mine", HandleListMine)

	body := map[string]any{"courtId": court.ID, "date": "2024-06-15", "startTime": "09:00", "endTime": "10:00"}
	join := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, testutil.AsUser(testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/waitlist", body), user))
		return rec
	}

	rec := join()
	if rec.Code != http.StatusCreated {
		t.Fatalf("join status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var entry models.WaitlistEntry
	testutil.DecodeEnvelope(t, rec).DecodeData(t, &entry)
	if entry.Status != models.WaitlistWaiting || entry.UserID != user.ID {
		t.Fatalf("entry = %+v", entry)
	}

	rec = join()
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate join status = %d", rec.Code)
	}
	if env := testutil.DecodeEnvelope(t, rec); env.Message != "Already in waitlist for this slot" {
		t.Fatalf("message = %q", env.Message)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, testutil.AsUser(httptest.NewRequest(http.MethodGet, "/api/v1/waitlist/mine", nil), user))
	if env := testutil.DecodeEnvelope(t, rec); env.Count == nil || *env.Count != 1 {
		t.Fatalf("mine count = %v", env.Count)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/v1/waitlist", body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rec.Code)
	}

	delete(body, "endTime")
	rec = join()
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing endTime status = %d", rec.Code)
	}
}
