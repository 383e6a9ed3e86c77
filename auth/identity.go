package auth

import (
	"context"
	"time"
)

// Credential is the result of a successful sign-up or sign-in.
type Credential struct {
	UserID       string        `json:"user_id"`
	Email        string        `json:"email"`
	DisplayName  string        `json:"display_name,omitempty"`
	IDToken      string        `json:"id_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// IdentityProvider is the remote account service.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*Credential, error)
	SignIn(ctx context.Context, email, password string) (*Credential, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, idToken, displayName string) (*Credential, error)
}
