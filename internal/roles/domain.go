package roles

import (
	"time"

	"github.com/google/uuid"

	"github.com/norulespvp/portal/internal/rbac"
)

// Assignment is a persisted role grant. The store is the source of truth
// for who holds what; session caches derived from it go stale on change.
type Assignment struct {
	UserID     uuid.UUID
	Role       rbac.Role
	AssignedAt time.Time
}

// StaffEntry joins an assignment with the holder's profile display data for
// the admin staff overview.
type StaffEntry struct {
	UserID          uuid.UUID
	Role            rbac.Role
	AssignedAt      time.Time
	DiscordUsername string
	DiscordAvatar   string
}
