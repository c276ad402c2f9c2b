// internal/api/bookings/handlers.go
package bookings

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/availability"
	"github.com/codr1/Courtside/internal/booking"
	"github.com/codr1/Courtside/internal/models"
)

var (
	serviceMu sync.RWMutex
	service   *booking.Service
)

type createRequest struct {
	CourtID   int64                  `json:"courtId"`
	CoachID   *int64                 `json:"coachId,omitempty"`
	Equipment []models.EquipmentLine `json:"equipment,omitempty"`
	Date      models.Date            `json:"date"`
	StartTime *models.TimeOfDay      `json:"startTime"`
	EndTime   *models.TimeOfDay      `json:"endTime"`
	Notes     string                 `json:"notes,omitempty"`
}

type availabilityRequest struct {
	CourtID              int64                  `json:"courtId"`
	CoachID              *int64                 `json:"coachId,omitempty"`
	Equipment            []models.EquipmentLine `json:"equipment,omitempty"`
	Date                 models.Date            `json:"date"`
	StartTime            *models.TimeOfDay      `json:"startTime"`
	EndTime              *models.TimeOfDay      `json:"endTime"`
	ExcludeReservationID int64                  `json:"excludeBookingId,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service) {
	if svc == nil {
		log.Warn().Msg("bookings.InitHandlers called with nil service")
		return
	}
	serviceMu.Lock()
	service = svc
	serviceMu.Unlock()
}

func loadService(w http.ResponseWriter, r *http.Request) *booking.Service {
	serviceMu.RLock()
	svc := service
	serviceMu.RUnlock()
	if svc == nil {
		log.Ctx(r.Context()).Error().Msg("Booking service not initialized")
		apiutil.WriteMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
	return svc
}

// slotFromTimes requires both times and leaves ordering checks to the service.
func slotFromTimes(start, end *models.TimeOfDay) (models.Slot, error) {
	if start == nil {
		return models.Slot{}, apiutil.BadRequest("startTime is required", nil)
	}
	if end == nil {
		return models.Slot{}, apiutil.BadRequest("endTime is required", nil)
	}
	return models.Slot{Start: *start, End: *end}, nil
}

// POST /api/v1/bookings
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	slot, err := slotFromTimes(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	reservation, err := svc.CreateReservation(r.Context(), booking.ReservationRequest{
		UserID:    user.ID,
		CourtID:   req.CourtID,
		CoachID:   req.CoachID,
		Equipment: req.Equipment,
		Date:      req.Date,
		Slot:      slot,
		Notes:     req.Notes,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusCreated, reservation)
}

// GET /api/v1/bookings/mine
func HandleListMine(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	reservations, err := svc.ListMyReservations(r.Context(), apiutil.Actor(user))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteList(w, r, reservations)
}

// GET /api/v1/bookings
func HandleListAll(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	user, ok := apiutil.RequireAdmin(w, r)
	if !ok {
		return
	}

	date, err := apiutil.QueryDate(r, "date")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	courtID, err := apiutil.QueryInt64(r, "court")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	reservations, err := svc.ListReservations(r.Context(), apiutil.Actor(user), booking.ReservationFilter{
		Status:  r.URL.Query().Get("status"),
		Date:    date,
		CourtID: courtID,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteList(w, r, reservations)
}

// GET /api/v1/bookings/{id}
func HandleGet(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	reservation, err := svc.GetReservation(r.Context(), apiutil.Actor(user), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, reservation)
}

// PUT /api/v1/bookings/{id}/cancel
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	reservation, err := svc.CancelReservation(r.Context(), apiutil.Actor(user), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, reservation)
}

// PUT /api/v1/bookings/{id}/status
func HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	user, ok := apiutil.RequireAdmin(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	var req statusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	reservation, err := svc.UpdateReservationStatus(r.Context(), apiutil.Actor(user), id, req.Status)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, reservation)
}

// DELETE /api/v1/bookings/{id}
func HandleDelete(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	user, ok := apiutil.RequireAdmin(w, r)
	if !ok {
		return
	}
	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := svc.DeleteReservation(r.Context(), apiutil.Actor(user), id); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteMessage(w, r, http.StatusOK, "Booking deleted")
}

// POST /api/v1/bookings/check-availability
func HandleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	var req availabilityRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	slot, err := slotFromTimes(req.StartTime, req.EndTime)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var coachID int64
	if req.CoachID != nil {
		coachID = *req.CoachID
	}
	result, err := svc.CheckAvailability(r.Context(), availability.Request{
		CourtID:              req.CourtID,
		CoachID:              coachID,
		Equipment:            req.Equipment,
		Date:                 req.Date,
		Slot:                 slot,
		ExcludeReservationID: req.ExcludeReservationID,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, result)
}

// GET /api/v1/bookings/stats
func HandleStats(w http.ResponseWriter, r *http.Request) {
	svc := loadService(w, r)
	if svc == nil {
		return
	}
	user, ok := apiutil.RequireAdmin(w, r)
	if !ok {
		return
	}
	stats, err := svc.Stats(r.Context(), apiutil.Actor(user))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, stats)
}
