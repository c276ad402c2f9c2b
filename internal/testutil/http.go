package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codr1/Courtside/internal/api/authz"
	"github.com/codr1/Courtside/internal/models"
)

// NewJSONRequest builds a request with a JSON body. A nil body sends none.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AsUser attaches user to the request context as the authenticated caller.
func AsUser(req *http.Request, user models.User) *http.Request {
	ctx := authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: user.ID, Role: user.Role})
	return req.WithContext(ctx)
}

// DecodeEnvelope decodes the standard response envelope, leaving data raw.
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

type Envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	ConflictType string          `json:"conflictType"`
	Count        *int            `json:"count"`
	Data         json.RawMessage `json:"data"`
}

// DecodeData unmarshals the envelope's data into dst.
func (e Envelope) DecodeData(t *testing.T, dst any) {
	t.Helper()
	if err := json.Unmarshal(e.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", e.Data, err)
	}
}
