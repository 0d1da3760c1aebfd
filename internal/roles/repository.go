package roles

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
)

// Repository defines persistence for role assignments.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Assignment, error)
	ListAll(ctx context.Context) ([]StaffEntry, error)
	Assign(ctx context.Context, userID uuid.UUID, role rbac.Role) error
	Remove(ctx context.Context, userID uuid.UUID, role rbac.Role) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListByUser returns the assignments held by a user.
func (r *PGRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, role, assigned_at
		FROM user_role_assignments WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		var raw string
		if err := rows.Scan(&a.UserID, &raw, &a.AssignedAt); err != nil {
			return nil, err
		}
		// Rows written under a retired role name are skipped rather than
		// surfaced; resolution drops them anyway.
		role, ok := rbac.ParseRole(raw)
		if !ok {
			continue
		}
		a.Role = role
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListAll returns every assignment joined with profile display data.
func (r *PGRepository) ListAll(ctx context.Context) ([]StaffEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.user_id, a.role, a.assigned_at,
		       COALESCE(p.discord_username, ''), COALESCE(p.discord_avatar, '')
		FROM user_role_assignments a
		LEFT JOIN profiles p ON p.user_id = a.user_id
		ORDER BY a.assigned_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []StaffEntry
	for rows.Next() {
		var e StaffEntry
		var raw string
		if err := rows.Scan(&e.UserID, &raw, &e.AssignedAt, &e.DiscordUsername, &e.DiscordAvatar); err != nil {
			return nil, err
		}
		role, ok := rbac.ParseRole(raw)
		if !ok {
			continue
		}
		e.Role = role
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Assign inserts an assignment. Granting a role the user already holds is
// an idempotent success.
func (r *PGRepository) Assign(ctx context.Context, userID uuid.UUID, role rbac.Role) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_role_assignments (user_id, role, assigned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, role) DO NOTHING`,
		userID, string(role), time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		return err
	}
	return nil
}

// Remove deletes an assignment. Returns ErrNotFound if nothing was deleted.
func (r *PGRepository) Remove(ctx context.Context, userID uuid.UUID, role rbac.Role) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_role_assignments WHERE user_id = $1 AND role = $2`,
		userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
