package catalog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codr1/Courtside/internal/api/apiutil"
	appdb "github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
)

const msgCoachNotFound = "Coach not found"

type coachPayload struct {
	Name           string                      `json:"name"`
	Email          string                      `json:"email,omitempty"`
	Phone          string                      `json:"phone,omitempty"`
	Specialization string                      `json:"specialization,omitempty"`
	HourlyRate     float64                     `json:"hourlyRate"`
	Bio            string                      `json:"bio,omitempty"`
	Experience     int                         `json:"experience,omitempty"`
	Active         *bool                       `json:"isActive,omitempty"`
	Availability   []models.AvailabilityWindow `json:"availability,omitempty"`
}

func (p coachPayload) apply(coach *models.Coach) error {
	name, err := requireName(p.Name)
	if err != nil {
		return err
	}
	if err := nonNegative(p.HourlyRate, "hourlyRate"); err != nil {
		return err
	}
	if p.Experience < 0 {
		return apiutil.BadRequest("experience must be 0 or greater", nil)
	}
	for i, window := range p.Availability {
		if window.DayOfWeek < time.Sunday || window.DayOfWeek > time.Saturday {
			return apiutil.BadRequest(fmt.Sprintf("availability[%d].dayOfWeek must be 0-6", i), nil)
		}
		if _, err := models.NewSlot(window.StartTime, window.EndTime); err != nil {
			return apiutil.BadRequest(fmt.Sprintf("availability[%d]: %v", i, err), err)
		}
	}
	coach.Name = name
	coach.Email = p.Email
	coach.Phone = p.Phone
	coach.Specialization = p.Specialization
	coach.HourlyRate = p.HourlyRate
	coach.Bio = p.Bio
	coach.Experience = p.Experience
	coach.Active = boolOr(p.Active, coach.ID == 0 || coach.Active)
	coach.Availability = p.Availability
	return nil
}

// GET /api/v1/coaches
func HandleListCoaches(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	active, err := apiutil.QueryBool(r, "isActive")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	coaches, err := d.queries().ListCoaches(r.Context(), appdb.CatalogFilter{Active: active})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteList(w, r, coaches)
}

// GET /api/v1/coaches/{id}
func HandleGetCoach(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	coach, err := d.queries().GetCoach(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgCoachNotFound))
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, coach)
}

// POST /api/v1/coaches
func HandleCreateCoach(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	if _, ok := apiutil.RequireAdmin(w, r); !ok {
		return
	}
	var payload coachPayload
	if err := apiutil.DecodeJSON(r, &payload); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	var coach models.Coach
	if err := payload.apply(&coach); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	created, err := d.queries().CreateCoach(r.Context(), coach)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusCreated, created)
}

// PUT /api/v1/coaches/{id}
func HandleUpdateCoach(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	if _, ok := apiutil.RequireAdmin(w, r); !ok {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	var payload coachPayload
	if err := apiutil.DecodeJSON(r, &payload); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	coach, err := d.queries().GetCoach(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgCoachNotFound))
		return
	}
	if err := payload.apply(&coach); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, err := d.queries().UpdateCoach(r.Context(), coach); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	updated, err := d.queries().GetCoach(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgCoachNotFound))
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, updated)
}

// DELETE /api/v1/coaches/{id}
func HandleDeleteCoach(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	if _, ok := apiutil.RequireAdmin(w, r); !ok {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	deleted, err := d.queries().DeleteCoach(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, deleteError(err))
		return
	}
	if deleted == 0 {
		apiutil.WriteError(w, r, notFound(msgCoachNotFound))
		return
	}
	apiutil.WriteMessage(w, r, http.StatusOK, "Coach deleted")
}
