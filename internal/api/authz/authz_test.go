package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/codr1/Courtside/internal/models"
)

func TestUserFromContext(t *testing.T) {
	if user := UserFromContext(context.Background()); user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}

	ctx := ContextWithUser(context.Background(), &AuthUser{ID: 7, Role: models.RoleUser})
	user := UserFromContext(ctx)
	if user == nil || user.ID != 7 {
		t.Fatalf("user = %+v", user)
	}
}

func TestRequireUserUnauthenticated(t *testing.T) {
	_, err := RequireUser(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	if _, err := RequireAdmin(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	member := ContextWithUser(context.Background(), &AuthUser{ID: 1, Role: models.RoleUser})
	if _, err := RequireAdmin(member); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	admin := ContextWithUser(context.Background(), &AuthUser{ID: 2, Role: models.RoleAdmin})
	user, err := RequireAdmin(admin)
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if user.ID != 2 {
		t.Fatalf("user = %+v", user)
	}
}

func TestIsAdminNilSafe(t *testing.T) {
	var user *AuthUser
	if user.IsAdmin() {
		t.Fatal("nil user must not be admin")
	}
}
