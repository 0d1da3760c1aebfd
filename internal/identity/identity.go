// Package identity wraps the external identity provider boundary. The
// OAuth exchange itself happens in the auth backend; this package only
// verifies bearer credentials and describes what came back.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the verified external identity behind a bearer credential.
type Identity struct {
	// UserID is the internal account id minted by the auth backend.
	UserID uuid.UUID
	// ExternalID is the provider subject id (Discord user id). May be
	// empty for accounts created before the provider link existed.
	ExternalID string
	Username   string
	AvatarURL  string
	Email      string
	// Groups are the provider group (Discord role) ids the subject holds.
	Groups []string
}

// Verifier validates a bearer credential against the auth backend.
type Verifier interface {
	// Verify returns the identity behind the credential, or
	// shared.ErrUnauthorized when the credential is absent or invalid.
	Verify(ctx context.Context, bearer string) (*Identity, error)
}
