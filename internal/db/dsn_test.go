package db

import "testing"

func TestPrepareDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"app.db", "app.db?_fk=1&_txlock=immediate&_busy_timeout=5000"},
		{"app.db?_fk=0", "app.db?_fk=0&_txlock=immediate&_busy_timeout=5000"},
		{"file:app.db?cache=shared&_txlock=deferred", "file:app.db?cache=shared&_txlock=deferred&_fk=1&_busy_timeout=5000"},
	}
	for _, tt := range tests {
		if got := prepareDSN(tt.in); got != tt.want {
			t.Fatalf("prepareDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
