// Package identity signs users in against the identity provider and tracks
// the signed-in state of one bot user.
package identity

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors.
var (
	ErrNoIdentity         = errors.New("no signed-in identity")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrSessionExpired     = errors.New("session expired, please log in again")
	ErrNotConfigured      = errors.New("identity provider not configured")
)

// Credentials is what the provider returns from a sign-in or refresh.
type Credentials struct {
	UID          string
	Email        string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Provider talks to the identity service.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Credentials, error)
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	// Refresh always exchanges the refresh token for a new ID token.
	Refresh(ctx context.Context, refreshToken string) (*Credentials, error)
}

// Identity is the signed-in user as seen by the rest of the bot.
type Identity struct {
	UID          string
	Email        string
	RefreshToken string
}
