package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/codr1/Courtside/internal/api/auth"
	"github.com/codr1/Courtside/internal/api/authz"
	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
	"github.com/codr1/Courtside/internal/ratelimit"
)

func TestWithRequestIDReusesValidHeader(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	const incoming = "0b9c7a4e-3f55-4d53-9e8e-2b7c1f0e4a11"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", incoming)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != incoming || rec.Header().Get("X-Request-ID") != incoming {
		t.Fatalf("request id = %q, header = %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen == "" || seen == "not-a-uuid" {
		t.Fatalf("expected generated request id, got %q", seen)
	}
}

func TestWithAuth(t *testing.T) {
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	token, err := tokens.Issue(42, models.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var user *authz.AuthUser
	handler := WithAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = authz.UserFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		wantID int64
	}{
		{"valid token", "Bearer " + token, 42},
		{"missing token", "", 0},
		{"invalid token", "Bearer garbage", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantID == 0 {
				if user != nil {
					t.Fatalf("expected anonymous request, got %+v", user)
				}
				return
			}
			if user == nil || user.ID != tt.wantID || !user.IsAdmin() {
				t.Fatalf("user = %+v", user)
			}
		})
	}
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func TestWithRateLimit(t *testing.T) {
	limiter := ratelimit.New(&ratelimit.Config{Limit: 2, Window: time.Minute, Clock: fixedClock{now: time.Now()}})
	defer limiter.Close()

	handler := WithRateLimit(limiter, "bookings")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	send := func(userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		if userID != 0 {
			req = req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{ID: userID, Role: models.RoleUser}))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send(1); rec.Code != http.StatusCreated {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := send(1)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), "Too many requests") {
		t.Fatalf("body = %s", rec.Body.String())
	}

	if rec := send(2); rec.Code != http.StatusCreated {
		t.Fatalf("other user status = %d", rec.Code)
	}
	for i := 0; i < 3; i++ {
		if rec := send(0); rec.Code != http.StatusCreated {
			t.Fatalf("anonymous status = %d", rec.Code)
		}
	}
}

func TestWithRecovery(t *testing.T) {
	handler := WithRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestWithMetricsUsesRoutePattern(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/courts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := WithMetrics(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/courts/7", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "GET /api/v1/courts/{id}", "204")); got != 1 {
		t.Fatalf("pattern counter = %v", got)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("unmatched counter = %v", got)
	}
}

func TestChainMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := ChainMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), mark("inner"), mark("outer"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Fatalf("order = %v", order)
	}
}
