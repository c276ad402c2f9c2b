package booking

import (
	"errors"
	"fmt"

	"github.com/codr1/Courtside/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyCancelled  = errors.New("reservation is already cancelled")
	ErrAlreadyOnWaitlist = errors.New("already on the waitlist for this slot")
)

// NotFoundError names the missing resource. Message is safe to show callers.
type NotFoundError struct {
	Resource string
	ID       int64
	Message  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(resource string, id int64, message string) error {
	return &NotFoundError{Resource: resource, ID: id, Message: message}
}

// ConflictError reports an unavailable slot.
type ConflictError struct {
	Reason       string
	ConflictType models.ConflictType
}

func (e *ConflictError) Error() string {
	if e.ConflictType == models.ConflictNone {
		return "slot unavailable: " + e.Reason
	}
	return fmt.Sprintf("%s conflict: %s", e.ConflictType, e.Reason)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
