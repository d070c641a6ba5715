package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Profile creation modes.
const (
	CreationModeSelfServe = "self_serve"
	CreationModeAdminOnly = "admin_only"
)

// PlatformSettings is the singleton platform_settings row.
type PlatformSettings struct {
	ProfileCreationMode string
	RequireApproval     bool
	UpdatedAt           time.Time
}

// DefaultPlatformSettings applies when the settings row is missing.
func DefaultPlatformSettings() PlatformSettings {
	return PlatformSettings{ProfileCreationMode: CreationModeSelfServe, RequireApproval: true}
}

// SettingsStore reads and writes platform_settings.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore returns a store bound to pool.
func NewSettingsStore(ctx context.Context, pool *pgxpool.Pool) (*SettingsStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SettingsStore{pool: pool}, nil
}

// GetSettings returns the platform settings, or the defaults when the row is absent.
func (s *SettingsStore) GetSettings(ctx context.Context) (PlatformSettings, error) {
	var settings PlatformSettings
	err := s.pool.QueryRow(ctx, `
        SELECT profile_creation_mode, require_approval, updated_at FROM platform_settings WHERE id = 1
    `).Scan(&settings.ProfileCreationMode, &settings.RequireApproval, &settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultPlatformSettings(), nil
	}
	if err != nil {
		return PlatformSettings{}, fmt.Errorf("get platform settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings upserts the singleton row.
func (s *SettingsStore) UpdateSettings(ctx context.Context, settings PlatformSettings) (PlatformSettings, error) {
	var out PlatformSettings
	if err := s.pool.QueryRow(ctx, `
        INSERT INTO platform_settings (id, profile_creation_mode, require_approval, updated_at)
        VALUES (1, $1, $2, NOW())
        ON CONFLICT (id) DO UPDATE
        SET profile_creation_mode = EXCLUDED.profile_creation_mode,
            require_approval = EXCLUDED.require_approval,
            updated_at = NOW()
        RETURNING profile_creation_mode, require_approval, updated_at
    `, settings.ProfileCreationMode, settings.RequireApproval).Scan(&out.ProfileCreationMode, &out.RequireApproval, &out.UpdatedAt); err != nil {
		return PlatformSettings{}, fmt.Errorf("update platform settings: %w", err)
	}
	return out, nil
}
