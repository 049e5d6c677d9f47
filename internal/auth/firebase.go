package auth

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"

	"movex/internal/domain"
)

// FirebaseVerifier verifies Firebase ID tokens through the Admin SDK.
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

// NewFirebaseVerifier builds a verifier from an initialized Firebase app.
func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify resolves a Firebase ID token to the authenticated principal.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	uid := strings.TrimSpace(decoded.UID)
	if uid == "" {
		return nil, fmt.Errorf("token has no uid")
	}

	principal := &domain.Principal{UID: uid}
	if email, ok := decoded.Claims["email"].(string); ok {
		principal.Email = strings.TrimSpace(email)
	}
	if name, ok := decoded.Claims["name"].(string); ok {
		principal.Name = strings.TrimSpace(name)
	}

	return principal, nil
}
