package auth

import (
	"context"
	"time"
)

// Identity is what a provider returns for a signed-in or newly created user.
type Identity struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	// IDToken is the provider's session token, empty for the local provider.
	IDToken string `json:"-"`
	// ExpiresAt is when IDToken lapses; nil without a token.
	ExpiresAt *time.Time `json:"-"`
}

// Provider is the external email/password authentication service.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, name, email, password string) (*Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
}
