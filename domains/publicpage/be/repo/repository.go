package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// Repository defines the read-only persistence the public page needs.
type Repository interface {
	GetProfileBySlug(ctx context.Context, slug string) (persistence.Profile, error)
	ListGalleryItems(ctx context.Context, profileID uuid.UUID) ([]persistence.GalleryItem, error)
	ListReviews(ctx context.Context, profileID uuid.UUID) ([]persistence.Review, error)
	ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error)
}

type postgresRepository struct {
	profiles *persistence.ProfileStore
	gallery  *persistence.GalleryStore
	reviews  *persistence.ReviewStore
	fields   *persistence.FormFieldStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(profiles *persistence.ProfileStore, gallery *persistence.GalleryStore, reviews *persistence.ReviewStore, fields *persistence.FormFieldStore) Repository {
	if profiles == nil || gallery == nil || reviews == nil || fields == nil {
		panic("profile, gallery, review and form field stores are required")
	}
	return &postgresRepository{profiles: profiles, gallery: gallery, reviews: reviews, fields: fields}
}

func (r *postgresRepository) GetProfileBySlug(ctx context.Context, slug string) (persistence.Profile, error) {
	return r.profiles.GetProfileBySlug(ctx, slug)
}

func (r *postgresRepository) ListGalleryItems(ctx context.Context, profileID uuid.UUID) ([]persistence.GalleryItem, error) {
	return r.gallery.ListGalleryItems(ctx, profileID)
}

func (r *postgresRepository) ListReviews(ctx context.Context, profileID uuid.UUID) ([]persistence.Review, error) {
	return r.reviews.ListReviews(ctx, profileID)
}

func (r *postgresRepository) ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error) {
	return r.fields.ListFields(ctx, profileID)
}
