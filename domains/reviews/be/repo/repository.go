package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// Repository defines the persistence operations required by the reviews service.
type Repository interface {
	List(ctx context.Context, profileID uuid.UUID) ([]persistence.Review, error)
	Insert(ctx context.Context, review persistence.Review) (persistence.Review, error)
	UpdateOrder(ctx context.Context, profileID, id uuid.UUID, orderIndex int) error
	Delete(ctx context.Context, profileID, id uuid.UUID) error
	IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error)
}

type postgresRepository struct {
	reviews  *persistence.ReviewStore
	profiles *persistence.ProfileStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(reviews *persistence.ReviewStore, profiles *persistence.ProfileStore) Repository {
	if reviews == nil {
		panic("review store is required")
	}
	if profiles == nil {
		panic("profile store is required")
	}
	return &postgresRepository{reviews: reviews, profiles: profiles}
}

func (r *postgresRepository) List(ctx context.Context, profileID uuid.UUID) ([]persistence.Review, error) {
	return r.reviews.ListReviews(ctx, profileID)
}

func (r *postgresRepository) Insert(ctx context.Context, review persistence.Review) (persistence.Review, error) {
	return r.reviews.InsertReview(ctx, review)
}

func (r *postgresRepository) UpdateOrder(ctx context.Context, profileID, id uuid.UUID, orderIndex int) error {
	return r.reviews.UpdateReviewOrder(ctx, profileID, id, orderIndex)
}

func (r *postgresRepository) Delete(ctx context.Context, profileID, id uuid.UUID) error {
	return r.reviews.DeleteReview(ctx, profileID, id)
}

func (r *postgresRepository) IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error) {
	return r.profiles.IsMember(ctx, profileID, userID)
}
