package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/codr1/Courtside/internal/models"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", field)
	}
	return value, nil
}

// PathID parses the {id} path value.
func PathID(r *http.Request) (int64, error) {
	id, err := ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		return 0, BadRequest(err.Error(), err)
	}
	return id, nil
}

// QueryInt64 parses an optional positive id from the query string. Absent
// values return zero.
func QueryInt64(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	value, err := ParsePositiveInt64Field(raw, key)
	if err != nil {
		return 0, BadRequest(err.Error(), err)
	}
	return value, nil
}

// QueryBool parses an optional boolean filter such as ?isActive=true.
func QueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, BadRequest(fmt.Sprintf("%s must be true or false", key), err)
	}
	return &value, nil
}

// QueryDate parses an optional YYYY-MM-DD date.
func QueryDate(r *http.Request, key string) (models.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return models.Date{}, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, BadRequest(fmt.Sprintf("%s must be YYYY-MM-DD", key), err)
	}
	return date, nil
}
