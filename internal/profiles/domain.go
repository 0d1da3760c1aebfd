package profiles

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries the display data synced from the identity provider.
type Profile struct {
	UserID          uuid.UUID
	DiscordID       string
	DiscordUsername string
	DiscordAvatar   string
	Email           string
	UpdatedAt       time.Time
}
