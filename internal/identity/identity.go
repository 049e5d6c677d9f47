// Package identity wraps the external identity provider: credential
// creation, sign-in, password reset and profile updates. The session manager
// consumes the Provider interface; production wires the Firebase Identity
// Toolkit REST client, tests wire a fake.
package identity

import (
	"context"
	"fmt"
)

// Account is the provider's view of an authenticated user, including the
// bearer token used against the storefront API.
type Account struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	IDToken       string
	RefreshToken  string
}

// AuthError is a credential operation the provider rejected. Code carries
// the provider's error code (for example EMAIL_EXISTS or INVALID_PASSWORD).
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("identity provider rejected request: %s", e.Code)
}

// Provider is the identity provider capability the session layer depends
// on. Credentials are never validated locally beyond what the provider
// enforces.
type Provider interface {
	// SignUp creates a new email/password credential.
	SignUp(ctx context.Context, email, password string) (*Account, error)

	// SignIn authenticates an existing credential.
	SignIn(ctx context.Context, email, password string) (*Account, error)

	// SignOut invalidates the provider-side session, if any. Token-based
	// providers treat discarding the token as sign-out.
	SignOut(ctx context.Context) error

	// SendPasswordReset dispatches a password reset email.
	SendPasswordReset(ctx context.Context, email string) error

	// UpdateProfile updates the profile projection for the account behind
	// idToken and returns the refreshed account.
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Account, error)
}
