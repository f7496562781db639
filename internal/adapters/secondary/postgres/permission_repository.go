package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// PermissionRepository handles database operations for the flat per-user
// permission grants.
type PermissionRepository struct {
	pool *pgxpool.Pool
}

var _ ports.PermissionRepository = (*PermissionRepository)(nil)

// NewPermissionRepository creates a new repository for permission queries.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// GetUserPermissions fetches all permissions granted to a user.
func (r *PermissionRepository) GetUserPermissions(ctx context.Context, userID uuid.UUID) (domain.PermissionSet, error) {
	query := `
		SELECT permission
		FROM user_permissions
		WHERE user_id = $1
	`

	rows, err := r.pool.Query(ctx, query, pgtype.UUID{Bytes: userID, Valid: true})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return domain.PermissionSetFromStrings(names), nil
}

// Grant adds permissions to a user, ignoring ones already held.
func (r *PermissionRepository) Grant(ctx context.Context, userID uuid.UUID, perms ...domain.Permission) error {
	query := `
		INSERT INTO user_permissions (user_id, permission)
		VALUES ($1, $2)
		ON CONFLICT (user_id, permission) DO NOTHING
	`

	for _, p := range perms {
		if _, err := r.pool.Exec(ctx, query, pgtype.UUID{Bytes: userID, Valid: true}, string(p)); err != nil {
			return err
		}
	}
	return nil
}
