package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// Repository defines the persistence operations required by the gallery service.
type Repository interface {
	List(ctx context.Context, profileID uuid.UUID) ([]persistence.GalleryItem, error)
	Get(ctx context.Context, profileID, id uuid.UUID) (persistence.GalleryItem, error)
	Insert(ctx context.Context, item persistence.GalleryItem) (persistence.GalleryItem, error)
	UpdateOrder(ctx context.Context, profileID, id uuid.UUID, orderIndex int) error
	Delete(ctx context.Context, profileID, id uuid.UUID) error
	IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error)
}

type postgresRepository struct {
	items    *persistence.GalleryStore
	profiles *persistence.ProfileStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(items *persistence.GalleryStore, profiles *persistence.ProfileStore) Repository {
	if items == nil {
		panic("gallery store is required")
	}
	if profiles == nil {
		panic("profile store is required")
	}
	return &postgresRepository{items: items, profiles: profiles}
}

func (r *postgresRepository) List(ctx context.Context, profileID uuid.UUID) ([]persistence.GalleryItem, error) {
	return r.items.ListGalleryItems(ctx, profileID)
}

func (r *postgresRepository) Get(ctx context.Context, profileID, id uuid.UUID) (persistence.GalleryItem, error) {
	return r.items.GetGalleryItem(ctx, profileID, id)
}

func (r *postgresRepository) Insert(ctx context.Context, item persistence.GalleryItem) (persistence.GalleryItem, error) {
	return r.items.InsertGalleryItem(ctx, item)
}

func (r *postgresRepository) UpdateOrder(ctx context.Context, profileID, id uuid.UUID, orderIndex int) error {
	return r.items.UpdateGalleryOrder(ctx, profileID, id, orderIndex)
}

func (r *postgresRepository) Delete(ctx context.Context, profileID, id uuid.UUID) error {
	return r.items.DeleteGalleryItem(ctx, profileID, id)
}

func (r *postgresRepository) IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error) {
	return r.profiles.IsMember(ctx, profileID, userID)
}
