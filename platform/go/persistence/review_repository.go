package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reviewColumns = `id, profile_id, kind, image_url, storage_key, source, name, event, rating, quote, order_index, created_at`

// Review represents a row in the reviews table.
type Review struct {
	ID         uuid.UUID
	ProfileID  uuid.UUID
	Kind       string
	ImageURL   *string
	StorageKey *string
	Source     *string
	Name       *string
	Event      *string
	Rating     *int
	Quote      *string
	OrderIndex int
	CreatedAt  time.Time
}

// ReviewStore persists reviews rows.
type ReviewStore struct {
	pool *pgxpool.Pool
}

// NewReviewStore returns a store bound to pool.
func NewReviewStore(ctx context.Context, pool *pgxpool.Pool) (*ReviewStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ReviewStore{pool: pool}, nil
}

// ListReviews returns the profile's reviews by ascending order index.
func (s *ReviewStore) ListReviews(ctx context.Context, profileID uuid.UUID) ([]Review, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+reviewColumns+`
        FROM reviews
        WHERE profile_id = $1
        ORDER BY order_index ASC, created_at ASC
    `, profileID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		review, scanErr := scanReview(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan review: %w", scanErr)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// GetReview returns one review scoped to its profile.
func (s *ReviewStore) GetReview(ctx context.Context, profileID, id uuid.UUID) (Review, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1 AND profile_id = $2`, id, profileID)
	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// InsertReview stores a new review.
func (s *ReviewStore) InsertReview(ctx context.Context, review Review) (Review, error) {
	row := s.pool.QueryRow(ctx, `
        INSERT INTO reviews (id, profile_id, kind, image_url, storage_key, source, name, event, rating, quote, order_index)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+reviewColumns,
		review.ID, review.ProfileID, review.Kind, review.ImageURL, review.StorageKey, review.Source,
		review.Name, review.Event, review.Rating, review.Quote, review.OrderIndex,
	)
	stored, err := scanReview(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("insert review: %w", err)
	}
	return stored, nil
}

// UpdateReviewOrder sets one row's order index.
func (s *ReviewStore) UpdateReviewOrder(ctx context.Context, profileID, id uuid.UUID, orderIndex int) error {
	return updateOrderIndex(ctx, s.pool, "reviews", profileID, id, orderIndex)
}

// DeleteReview removes one row.
func (s *ReviewStore) DeleteReview(ctx context.Context, profileID, id uuid.UUID) error {
	return deleteScoped(ctx, s.pool, "reviews", profileID, id)
}

func scanReview(scanner rowScanner) (Review, error) {
	var (
		r          Review
		imageURL   pgtype.Text
		storageKey pgtype.Text
		source     pgtype.Text
		name       pgtype.Text
		event      pgtype.Text
		rating     pgtype.Int4
		quote      pgtype.Text
	)
	if err := scanner.Scan(&r.ID, &r.ProfileID, &r.Kind, &imageURL, &storageKey, &source, &name, &event, &rating, &quote, &r.OrderIndex, &r.CreatedAt); err != nil {
		return Review{}, err
	}
	r.ImageURL = textPtr(imageURL)
	r.StorageKey = textPtr(storageKey)
	r.Source = textPtr(source)
	r.Name = textPtr(name)
	r.Event = textPtr(event)
	r.Quote = textPtr(quote)
	if rating.Valid {
		v := int(rating.Int32)
		r.Rating = &v
	}
	return r, nil
}
