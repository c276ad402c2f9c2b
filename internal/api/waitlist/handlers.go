// internal/api/waitlist/handlers.go
package waitlist

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/booking"
	"github.com/codr1/Courtside/internal/models"
)

var (
	serviceMu sync.RWMutex
	service   *booking.Service
)

type joinRequest struct {
	CourtID   int64             `json:"courtId"`
	Date      models.Date       `json:"date"`
	StartTime *models.TimeOfDay `json:"startTime"`
	EndTime   *models.TimeOfDay `json:"endTime"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service) {
	if svc == nil {
		log.Warn().Msg("waitlist.InitHandlers called with nil service")
		return
	}
	serviceMu.Lock()
	service = svc
	serviceMu.Unlock()
}

func loadService() *booking.Service {
	serviceMu.RLock()
	defer serviceMu.RUnlock()
	return service
}

// POST /api/v1/waitlist
func HandleJoin(w http.ResponseWriter, r *http.Request) {
	svc := loadService()
	if svc == nil {
		log.Ctx(r.Context()).Error().Msg("Booking service not initialized")
		apiutil.WriteMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	if req.StartTime == nil || req.EndTime == nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("startTime and endTime are required", nil))
		return
	}

	entry, err := svc.JoinWaitlist(r.Context(), apiutil.Actor(user), booking.WaitlistRequest{
		CourtID: req.CourtID,
		Date:    req.Date,
		Slot:    models.Slot{Start: *req.StartTime, End: *req.EndTime},
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusCreated, entry)
}

// GET /api/v1/waitlist/mine
func HandleListMine(w http.ResponseWriter, r *http.Request) {
	svc := loadService()
	if svc == nil {
		log.Ctx(r.Context()).Error().Msg("Booking service not initialized")
		apiutil.WriteMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}
	entries, err := svc.ListMyWaitlist(r.Context(), apiutil.Actor(user))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteList(w, r, entries)
}
