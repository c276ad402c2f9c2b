// Package catalog serves the court, coach, equipment, and pricing rule
// endpoints. Reads are public; writes require an admin.
package catalog

// NOTE: Tests cannot use t.Parallel() due to shared package state.

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/apiutil"
	"github.com/codr1/Courtside/internal/booking"
	appdb "github.com/codr1/Courtside/internal/db"
)

// RuleCache is notified after pricing rule writes.
type RuleCache interface {
	Invalidate(ctx context.Context)
}

type deps struct {
	db       *appdb.DB
	bookings *booking.Service
	rules    RuleCache
}

var (
	depsMu  sync.RWMutex
	current *deps
)

// InitHandlers must be called during server startup before handling requests.
// rules may be nil when no cache is configured.
func InitHandlers(database *appdb.DB, svc *booking.Service, rules RuleCache) {
	if database == nil || svc == nil {
		log.Warn().Msg("catalog.InitHandlers called with nil dependencies")
		return
	}
	depsMu.Lock()
	current = &deps{db: database, bookings: svc, rules: rules}
	depsMu.Unlock()
}

func load(w http.ResponseWriter, r *http.Request) *deps {
	depsMu.RLock()
	d := current
	depsMu.RUnlock()
	if d == nil {
		log.Ctx(r.Context()).Error().Msg("Catalog handlers not initialized")
		apiutil.WriteMessage(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
	return d
}

func (d *deps) queries() *appdb.Queries {
	return d.db.Queries
}

func (d *deps) invalidateRules(ctx context.Context) {
	if d.rules != nil {
		d.rules.Invalidate(ctx)
	}
}

func notFound(message string) apiutil.HandlerError {
	return apiutil.HandlerError{Status: http.StatusNotFound, Message: message, Err: sql.ErrNoRows}
}

// lookupError maps a missing row to 404 and passes anything else through.
func lookupError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(message)
	}
	return err
}

// deleteError reports rows still referenced by reservations as a conflict.
func deleteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return apiutil.HandlerError{
			Status:  http.StatusConflict,
			Message: "Resource is referenced by existing bookings",
			Err:     err,
		}
	}
	return err
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apiutil.BadRequest("name is required", nil)
	}
	return name, nil
}

func nonNegative(value float64, field string) error {
	if value < 0 {
		return apiutil.BadRequest(field+" must be 0 or greater", nil)
	}
	return nil
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
