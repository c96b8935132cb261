package auth

import (
	"context"

	"github.com/mmynk/splitx/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// The service layer only sees this interface, so other credential types can be
// added without touching AuthService.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, name, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
