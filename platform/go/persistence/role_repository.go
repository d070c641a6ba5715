package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RolePlatformAdmin is the only platform-wide role.
const RolePlatformAdmin = "platform_admin"

// RoleStore reads and writes user_roles.
type RoleStore struct {
	pool *pgxpool.Pool
}

// NewRoleStore returns a store bound to pool.
func NewRoleStore(ctx context.Context, pool *pgxpool.Pool) (*RoleStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &RoleStore{pool: pool}, nil
}

// HasRole reports whether userID holds role.
func (s *RoleStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)
    `, userID, role).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user role: %w", err)
	}
	return exists, nil
}

// GrantRole assigns role to userID; granting twice is a no-op.
func (s *RoleStore) GrantRole(ctx context.Context, userID, role string) error {
	if _, err := s.pool.Exec(ctx, `
        INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
        ON CONFLICT (user_id, role) DO NOTHING
    `, userID, role); err != nil {
		return fmt.Errorf("grant user role: %w", err)
	}
	return nil
}

// RevokeRole removes role from userID.
func (s *RoleStore) RevokeRole(ctx context.Context, userID, role string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, role)
	if err != nil {
		return fmt.Errorf("revoke user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
