package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

// tokenClient is the subset of *auth.Client used here.
type tokenClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*fbauth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

var _ SessionManager = (*FirebaseVerifier)(nil)

// FirebaseVerifier accepts Firebase session cookies and, failing that, raw ID tokens.
type FirebaseVerifier struct {
	client tokenClient
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrUnauthenticated
	}
	tok, err := v.client.VerifySessionCookie(ctx, token)
	if err != nil {
		tok, err = v.client.VerifyIDToken(ctx, token)
	}
	if err != nil {
		slog.DebugContext(ctx, "Token verification failed", "error", err)
		return User{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return userFromToken(tok), nil
}

func (v *FirebaseVerifier) CreateSession(ctx context.Context, idToken string, ttl time.Duration) (string, User, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", User{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	cookie, err := v.client.SessionCookie(ctx, idToken, ttl)
	if err != nil {
		return "", User{}, fmt.Errorf("create session cookie: %w", err)
	}
	return cookie, userFromToken(tok), nil
}

func (v *FirebaseVerifier) RevokeSession(ctx context.Context, userID string) error {
	if err := v.client.RevokeRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func userFromToken(tok *fbauth.Token) User {
	u := User{ID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		u.Email = email
	}
	return u
}
