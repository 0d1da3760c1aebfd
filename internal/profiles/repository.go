package profiles

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/norulespvp/portal/internal/shared"
)

// Repository defines persistence operations for profiles.
type Repository interface {
	Upsert(ctx context.Context, p Profile) error
	GetByUser(ctx context.Context, userID uuid.UUID) (Profile, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Upsert inserts or replaces the profile row keyed by user id.
func (r *PGRepository) Upsert(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, discord_id, discord_username, discord_avatar, email, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			discord_id = EXCLUDED.discord_id,
			discord_username = EXCLUDED.discord_username,
			discord_avatar = EXCLUDED.discord_avatar,
			email = EXCLUDED.email,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.DiscordID, p.DiscordUsername, p.DiscordAvatar, p.Email, time.Now().UTC())
	return err
}

// GetByUser fetches the profile for a user.
func (r *PGRepository) GetByUser(ctx context.Context, userID uuid.UUID) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, discord_id, discord_username, discord_avatar, email, updated_at
		FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.DiscordID, &p.DiscordUsername, &p.DiscordAvatar, &p.Email, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, err
	}
	return p, nil
}

var _ Repository = (*PGRepository)(nil)
