package auth

import (
	"context"
	"errors"
	"time"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// User is the identity attached to an authenticated request.
type User struct {
	ID    string
	Email string
}

// Verifier resolves a bearer token or session cookie to a user.
type Verifier interface {
	Verify(ctx context.Context, token string) (User, error)
}

// SessionManager mints and revokes session cookies on top of verification.
type SessionManager interface {
	Verifier
	CreateSession(ctx context.Context, idToken string, ttl time.Duration) (cookie string, user User, err error)
	RevokeSession(ctx context.Context, userID string) error
}

type ctxKey struct{}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFrom returns the user stored by WithUser.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok && u.ID != ""
}
