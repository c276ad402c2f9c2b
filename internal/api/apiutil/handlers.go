package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Courtside/internal/api/authz"
	"github.com/codr1/Courtside/internal/booking"
)

const msgInternal = "Internal Server Error"

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func BadRequest(message string, err error) HandlerError {
	return HandlerError{Status: http.StatusBadRequest, Message: message, Err: err}
}

// Response is the envelope every JSON endpoint writes.
type Response struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	ConflictType string `json:"conflictType,omitempty"`
	Count        *int   `json:"count,omitempty"`
	Data         any    `json:"data,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func WriteData(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, status, Response{Success: true, Data: data})
}

func WriteList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	count := len(items)
	write(w, r, http.StatusOK, Response{Success: true, Count: &count, Data: items})
}

func WriteMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, Response{Success: status < http.StatusBadRequest, Message: message})
}

func write(w http.ResponseWriter, r *http.Request, status int, payload Response) {
	if err := WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}

// WriteError translates handler, authorization, and booking errors into a
// JSON error response. Anything unrecognized is logged and reported as 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		handlerErr    HandlerError
		notFound      *booking.NotFoundError
		conflict      *booking.ConflictError
		validationErr *booking.ValidationError
	)

	switch {
	case errors.As(err, &handlerErr):
		if handlerErr.Status >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(err).Msg(handlerErr.Message)
		}
		WriteMessage(w, r, handlerErr.Status, handlerErr.Message)
	case errors.As(err, &conflict):
		write(w, r, http.StatusConflict, Response{
			Message:      conflict.Reason,
			ConflictType: string(conflict.ConflictType),
		})
	case errors.As(err, &notFound):
		WriteMessage(w, r, http.StatusNotFound, notFound.Message)
	case errors.As(err, &validationErr):
		WriteMessage(w, r, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, booking.ErrAlreadyCancelled):
		WriteMessage(w, r, http.StatusBadRequest, "Reservation is already cancelled")
	case errors.Is(err, booking.ErrAlreadyOnWaitlist):
		WriteMessage(w, r, http.StatusConflict, "Already in waitlist for this slot")
	case errors.Is(err, authz.ErrUnauthenticated):
		WriteMessage(w, r, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, authz.ErrForbidden), errors.Is(err, booking.ErrForbidden):
		WriteMessage(w, r, http.StatusForbidden, "Forbidden")
	default:
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		WriteMessage(w, r, http.StatusInternalServerError, msgInternal)
	}
}

// RequireUser writes 401 and returns false when the request is anonymous.
func RequireUser(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, bool) {
	user, err := authz.RequireUser(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return nil, false
	}
	return user, true
}

// RequireAdmin writes 401 or 403 and returns false unless the caller is an admin.
func RequireAdmin(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, bool) {
	user, err := authz.RequireAdmin(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("Admin access denied")
		WriteError(w, r, err)
		return nil, false
	}
	return user, true
}

func Actor(user *authz.AuthUser) booking.Actor {
	if user == nil {
		return booking.Actor{}
	}
	return booking.Actor{UserID: user.ID, IsAdmin: user.IsAdmin()}
}
