package catalog

import (
	"net/http"

	"github.com/codr1/Courtside/internal/api/apiutil"
	appdb "github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
)

const msgCourtNotFound = "Court not found"

type courtPayload struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	BasePrice   float64  `json:"basePrice"`
	Active      *bool    `json:"isActive,omitempty"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
}

func (p courtPayload) apply(court *models.Court) error {
	name, err := requireName(p.Name)
	if err != nil {
		return err
	}
	category, err := models.ParseCourtCategory(p.Category)
	if err != nil {
		return apiutil.BadRequest(err.Error(), err)
	}
	if err := nonNegative(p.BasePrice, "basePrice"); err != nil {
		return err
	}
	court.Name = name
	court.Category = category
	court.BasePrice = p.BasePrice
	court.Active = boolOr(p.Active, court.ID == 0 || court.Active)
	court.Description = p.Description
	court.Features = p.Features
	return nil
}

// GET /api/v1/courts
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	active, err := apiutil.QueryBool(r, "isActive")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	filter := appdb.CatalogFilter{Active: active}
	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := models.ParseCourtCategory(raw)
		if err != nil {
			apiutil.WriteError(w, r, apiutil.BadRequest(err.Error(), err))
			return
		}
		filter.Category = string(category)
	}
	courts, err := d.queries().ListCourts(r.Context(), filter)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteList(w, r, courts)
}

// GET /api/v1/courts/{id}
func HandleGetCourt(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	court, err := d.queries().GetCourt(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgCourtNotFound))
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, court)
}

// POST /api/v1/courts
func HandleCreateCourt(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	if _, ok := apiutil.RequireAdmin(w, r); !ok {
		return
	}
	var payload courtPayload
	if err := apiutil.DecodeJSON(r, &payload); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	var court models.Court
	if err := payload.apply(&court); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	created, err := d.queries().CreateCourt(r.Context(), court)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusCreated, created)
}

// PUT /api/v1/courts/{id}
func HandleUpdateCourt(w http.ResponseWriter, r *http.Request) {
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
	var payload courtPayload
	if err := apiutil.DecodeJSON(r, &payload); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	court, err := d.queries().GetCourt(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgCourtNotFound))
		return
	}
	if err := payload.apply(&court); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, err := d.queries().UpdateCourt(r.Context(), court); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	updated, err := d.queries().GetCourt(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgCourtNotFound))
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, updated)
}

// DELETE /api/v1/courts/{id}
func HandleDeleteCourt(w http.ResponseWriter, r *http.Request) {
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
	deleted, err := d.queries().DeleteCourt(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, deleteError(err))
		return
	}
	if deleted == 0 {
		apiutil.WriteError(w, r, notFound(msgCourtNotFound))
		return
	}
	apiutil.WriteMessage(w, r, http.StatusOK, "Court deleted")
}

// GET /api/v1/courts/{id}/slots?date=YYYY-MM-DD
func HandleCourtSlots(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, err := apiutil.QueryDate(r, "date")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if date.IsZero() {
		apiutil.WriteError(w, r, apiutil.BadRequest("date is required", nil))
		return
	}
	slots, err := d.bookings.ListSlots(r.Context(), id, date)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteList(w, r, slots)
}
