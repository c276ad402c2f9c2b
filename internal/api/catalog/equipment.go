package catalog

import (
	"net/http"

	"github.com/codr1/Courtside/internal/api/apiutil"
	appdb "github.com/codr1/Courtside/internal/db"
	"github.com/codr1/Courtside/internal/models"
)

const msgEquipmentNotFound = "Equipment not found"

type equipmentPayload struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	TotalQuantity int     `json:"totalQuantity"`
	PricePerHour  float64 `json:"pricePerHour"`
	Active        *bool   `json:"isActive,omitempty"`
	Description   string  `json:"description,omitempty"`
}

func (p equipmentPayload) apply(item *models.Equipment) error {
	name, err := requireName(p.Name)
	if err != nil {
		return err
	}
	category, err := models.ParseEquipmentCategory(p.Category)
	if err != nil {
		return apiutil.BadRequest(err.Error(), err)
	}
	if p.TotalQuantity < 0 {
		return apiutil.BadRequest("totalQuantity must be 0 or greater", nil)
	}
	if err := nonNegative(p.PricePerHour, "pricePerHour"); err != nil {
		return err
	}
	item.Name = name
	item.Category = category
	item.TotalQuantity = p.TotalQuantity
	item.PricePerHour = p.PricePerHour
	item.Active = boolOr(p.Active, item.ID == 0 || item.Active)
	item.Description = p.Description
	return nil
}

// GET /api/v1/equipment
func HandleListEquipment(w http.ResponseWriter, r *http.Request) {
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
		category, err := models.ParseEquipmentCategory(raw)
		if err != nil {
			apiutil.WriteError(w, r, apiutil.BadRequest(err.Error(), err))
			return
		}
		filter.Category = string(category)
	}
	items, err := d.queries().ListEquipment(r.Context(), filter)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteList(w, r, items)
}

// GET /api/v1/equipment/{id}
func HandleGetEquipment(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	item, err := d.queries().GetEquipment(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgEquipmentNotFound))
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, item)
}

// POST /api/v1/equipment
func HandleCreateEquipment(w http.ResponseWriter, r *http.Request) {
	d := load(w, r)
	if d == nil {
		return
	}
	if _, ok := apiutil.RequireAdmin(w, r); !ok {
		return
	}
	var payload equipmentPayload
	if err := apiutil.DecodeJSON(r, &payload); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	var item models.Equipment
	if err := payload.apply(&item); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	created, err := d.queries().CreateEquipment(r.Context(), item)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusCreated, created)
}

// PUT /api/v1/equipment/{id}
func HandleUpdateEquipment(w http.ResponseWriter, r *http.Request) {
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
	var payload equipmentPayload
	if err := apiutil.DecodeJSON(r, &payload); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	item, err := d.queries().GetEquipment(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgEquipmentNotFound))
		return
	}
	if err := payload.apply(&item); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, err := d.queries().UpdateEquipment(r.Context(), item); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	updated, err := d.queries().GetEquipment(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, lookupError(err, msgEquipmentNotFound))
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, updated)
}

// DELETE /api/v1/equipment/{id}
func HandleDeleteEquipment(w http.ResponseWriter, r *http.Request) {
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
	deleted, err := d.queries().DeleteEquipment(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, deleteError(err))
		return
	}
	if deleted == 0 {
		apiutil.WriteError(w, r, notFound(msgEquipmentNotFound))
		return
	}
	apiutil.WriteMessage(w, r, http.StatusOK, "Equipment deleted")
}
