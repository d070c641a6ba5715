package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// Repository defines the persistence operations required by the profiles service.
type Repository interface {
	GetSettings(ctx context.Context) (persistence.PlatformSettings, error)
	UpdateSettings(ctx context.Context, settings persistence.PlatformSettings) (persistence.PlatformSettings, error)
	Create(ctx context.Context, params persistence.CreateProfileParams) (persistence.Profile, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Profile, error)
	ListForUser(ctx context.Context, userID string) ([]persistence.Profile, error)
	List(ctx context.Context, status *string) ([]persistence.Profile, error)
	IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateProfileParams) (persistence.Profile, error)
	Approve(ctx context.Context, id uuid.UUID, approvedBy string, at time.Time) (persistence.Profile, error)
	Reject(ctx context.Context, id uuid.UUID, reason *string) (persistence.Profile, error)
}

type postgresRepository struct {
	profiles *persistence.ProfileStore
	settings *persistence.SettingsStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(profiles *persistence.ProfileStore, settings *persistence.SettingsStore) Repository {
	if profiles == nil {
		panic("profile store is required")
	}
	if settings == nil {
		panic("settings store is required")
	}
	return &postgresRepository{profiles: profiles, settings: settings}
}

func (r *postgresRepository) GetSettings(ctx context.Context) (persistence.PlatformSettings, error) {
	return r.settings.GetSettings(ctx)
}

func (r *postgresRepository) UpdateSettings(ctx context.Context, settings persistence.PlatformSettings) (persistence.PlatformSettings, error) {
	return r.settings.UpdateSettings(ctx, settings)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateProfileParams) (persistence.Profile, error) {
	return r.profiles.CreateProfile(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Profile, error) {
	return r.profiles.GetProfile(ctx, id)
}

func (r *postgresRepository) ListForUser(ctx context.Context, userID string) ([]persistence.Profile, error) {
	return r.profiles.ListProfilesForUser(ctx, userID)
}

func (r *postgresRepository) List(ctx context.Context, status *string) ([]persistence.Profile, error) {
	return r.profiles.ListProfiles(ctx, status)
}

func (r *postgresRepository) IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error) {
	return r.profiles.IsMember(ctx, profileID, userID)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateProfileParams) (persistence.Profile, error) {
	return r.profiles.UpdateProfile(ctx, id, params)
}

func (r *postgresRepository) Approve(ctx context.Context, id uuid.UUID, approvedBy string, at time.Time) (persistence.Profile, error) {
	return r.profiles.ApproveProfile(ctx, id, approvedBy, at)
}

func (r *postgresRepository) Reject(ctx context.Context, id uuid.UUID, reason *string) (persistence.Profile, error) {
	return r.profiles.RejectProfile(ctx, id, reason)
}
