package authz

import (
	"context"
	"errors"

	"github.com/codr1/Courtside/internal/models"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type AuthUser struct {
	ID   int64
	Role models.Role
}

func (u *AuthUser) IsAdmin() bool {
	return u != nil && u.Role == models.RoleAdmin
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}
	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}
	return user
}

// RequireUser returns the authenticated user or ErrUnauthenticated.
func RequireUser(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// RequireAdmin returns the authenticated admin, ErrUnauthenticated when
// nobody is signed in, or ErrForbidden for other roles.
func RequireAdmin(ctx context.Context) (*AuthUser, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return user, nil
}
