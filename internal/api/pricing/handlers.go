// internal/api/pricing/handlers.go
package pricing

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

type calculateRequest struct {
	CourtID   int64                  `json:"courtId"`
	CoachID   *int64                 `json:"coachId,omitempty"`
	Equipment []models.EquipmentLine `json:"equipment,omitempty"`
	Date      models.Date            `json:"date"`
	StartTime *models.TimeOfDay      `json:"startTime"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *booking.Service) {
	if svc == nil {
		log.Warn().Msg("pricing.InitHandlers called with nil service")
		return
	}
	serviceMu.Lock()
	service = svc
	serviceMu.Unlock()
}

// POST /api/v1/pricing/calculate
func HandleCalculate(w http.ResponseWriter, r *http.Request) {
	serviceMu.RLock()
	svc := service
	serviceMu.RUnlock()
	if svc == nil {
		log.Ctx(r.Context()).Error().Msg("Booking service not initialized")
		apiutil.WriteMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req calculateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("Invalid request body", err))
		return
	}
	if req.StartTime == nil {
		apiutil.WriteError(w, r, apiutil.BadRequest("startTime is required", nil))
		return
	}

	breakdown, err := svc.QuotePrice(r.Context(), booking.QuoteRequest{
		CourtID:   req.CourtID,
		CoachID:   req.CoachID,
		Equipment: req.Equipment,
		Date:      req.Date,
		StartTime: *req.StartTime,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	apiutil.WriteData(w, r, http.StatusOK, breakdown)
}
