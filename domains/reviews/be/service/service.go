package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/reviews/be/repo"
	"github.com/zenGate-Global/booking-funnel/platform/go/access"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/ordering"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
	"github.com/zenGate-Global/booking-funnel/platform/go/storage"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound        = errors.New("review not found")
	ErrForbidden       = access.ErrForbidden
	ErrUnauthenticated = access.ErrUnauthenticated
)

const (
	KindImage = "image"
	KindText  = "text"

	// ScreenshotSource labels uploaded review screenshots.
	ScreenshotSource = "Screenshot"
	// DefaultRating applies when a text review omits one.
	DefaultRating = 5

	maxQuoteLength = 2000
)

// Review is one testimonial.
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

func (r Review) ItemID() uuid.UUID { return r.ID }
func (r Review) SortIndex() int    { return r.OrderIndex }

func (r Review) WithSortIndex(index int) Review {
	r.OrderIndex = index
	return r
}

// TextInput is a typed-in testimonial.
type TextInput struct {
	Name   *string
	Event  *string
	Rating *int
	Quote  *string
}

// ScreenshotInput is one uploaded screenshot.
type ScreenshotInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Media is where uploaded screenshots go.
type Media struct {
	Blobs  storage.Blobs
	Bucket string
}

// PageInvalidator drops cached public pages after edits.
type PageInvalidator interface {
	InvalidateProfile(ctx context.Context, profileID uuid.UUID)
}

// Service defines the business operations for the reviews domain.
type Service interface {
	List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) ([]Review, error)
	AddText(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input TextInput) (Review, error)
	UploadScreenshot(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input ScreenshotInput) (Review, error)
	Delete(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID) error
	Move(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID, direction string) ([]Review, error)
}

type service struct {
	repo  repo.Repository
	guard *access.Guard
	media Media
	pages PageInvalidator
	now   func() time.Time
}

// New constructs a reviews Service. pages may be nil.
func New(r repo.Repository, media Media, pages PageInvalidator) Service {
	if r == nil {
		panic("reviews repository is required")
	}
	if media.Blobs == nil {
		panic("media storage is required")
	}
	if media.Bucket == "" {
		media.Bucket = storage.DefaultBucket
	}
	return &service{repo: r, guard: access.NewGuard(r), media: media, pages: pages, now: time.Now}
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) ([]Review, error) {
	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return nil, err
	}
	return collection.Items(), nil
}

func (s *service) AddText(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input TextInput) (Review, error) {
	fieldErrors := FieldErrors{}

	quote := trimmedOrNil(input.Quote)
	switch {
	case quote == nil:
		fieldErrors.add("quote", "quote is required")
	case utf8.RuneCountInString(*quote) > maxQuoteLength:
		fieldErrors.add("quote", fmt.Sprintf("quote must be at most %d characters", maxQuoteLength))
	}

	rating := DefaultRating
	if input.Rating != nil {
		rating = *input.Rating
	}
	if rating < 1 || rating > 5 {
		fieldErrors.add("rating", "rating must be between 1 and 5")
	}

	if len(fieldErrors) > 0 {
		return Review{}, &ValidationError{Fields: fieldErrors}
	}

	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return Review{}, err
	}

	stored, _, err := collection.Append(ctx, Review{
		ID:        uuid.New(),
		ProfileID: profileID,
		Kind:      KindText,
		Name:      trimmedOrNil(input.Name),
		Event:     trimmedOrNil(input.Event),
		Rating:    &rating,
		Quote:     quote,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return Review{}, mapPersistenceError(err)
	}

	s.invalidate(ctx, profileID)
	return stored, nil
}

func (s *service) UploadScreenshot(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input ScreenshotInput) (Review, error) {
	if input.Body == nil || !strings.HasPrefix(strings.ToLower(input.ContentType), "image/") {
		fieldErrors := FieldErrors{}
		fieldErrors.add("file", "upload an image")
		return Review{}, &ValidationError{Fields: fieldErrors}
	}

	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return Review{}, err
	}

	now := s.now().UTC()
	loc, err := storage.ResolveObjectLocation(s.media.Bucket, profileID, storage.FolderReviews, input.Filename, now)
	if err != nil {
		return Review{}, fmt.Errorf("resolve screenshot location: %w", err)
	}
	publicURL, err := s.media.Blobs.Put(ctx, loc, input.ContentType, input.Body)
	if err != nil {
		return Review{}, fmt.Errorf("store screenshot: %w", err)
	}

	source := ScreenshotSource
	key := loc.Key
	stored, _, err := collection.Append(ctx, Review{
		ID:         uuid.New(),
		ProfileID:  profileID,
		Kind:       KindImage,
		ImageURL:   &publicURL,
		StorageKey: &key,
		Source:     &source,
		CreatedAt:  now,
	})
	if err != nil {
		s.discardBlob(ctx, loc)
		return Review{}, mapPersistenceError(err)
	}

	s.invalidate(ctx, profileID)
	return stored, nil
}

func (s *service) Delete(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID) error {
	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return err
	}

	review, ok := collection.Find(reviewID)
	if !ok {
		return ErrNotFound
	}
	if _, err := collection.Remove(ctx, reviewID); err != nil {
		return mapPersistenceError(err)
	}
	if review.StorageKey != nil {
		s.discardBlob(ctx, storage.ObjectLocation{Bucket: s.media.Bucket, Key: *review.StorageKey})
	}

	s.invalidate(ctx, profileID)
	return nil
}

func (s *service) Move(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID, direction string) ([]Review, error) {
	dir, err := ordering.ParseDirection(direction)
	if err != nil {
		fieldErrors := FieldErrors{}
		fieldErrors.add("direction", err.Error())
		return nil, &ValidationError{Fields: fieldErrors}
	}

	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return nil, err
	}

	res, err := collection.Move(ctx, reviewID, dir)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	if res.Changed {
		s.invalidate(ctx, profileID)
	}
	return collection.Items(), nil
}

func (s *service) collection(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) (*ordering.Collection[Review], error) {
	if err := s.guard.RequireProfile(ctx, audit, profileID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	reviews := make([]Review, 0, len(rows))
	for _, row := range rows {
		reviews = append(reviews, mapReview(row))
	}
	return ordering.NewCollection[Review](profileID, orderingStore{repo: s.repo, profileID: profileID}, reviews), nil
}

func (s *service) discardBlob(ctx context.Context, loc storage.ObjectLocation) {
	if err := s.media.Blobs.Delete(ctx, loc); err != nil {
		platformlogging.FromContextOr(ctx, zap.NewNop()).Warn("review media cleanup failed",
			zap.String("bucket", loc.Bucket),
			zap.String("key", loc.Key),
			zap.Error(err),
		)
	}
}

func (s *service) invalidate(ctx context.Context, profileID uuid.UUID) {
	if s.pages != nil {
		s.pages.InvalidateProfile(ctx, profileID)
	}
}

type orderingStore struct {
	repo      repo.Repository
	profileID uuid.UUID
}

func (s orderingStore) Insert(ctx context.Context, review Review) (Review, error) {
	stored, err := s.repo.Insert(ctx, persistence.Review{
		ID:         review.ID,
		ProfileID:  review.ProfileID,
		Kind:       review.Kind,
		ImageURL:   review.ImageURL,
		StorageKey: review.StorageKey,
		Source:     review.Source,
		Name:       review.Name,
		Event:      review.Event,
		Rating:     review.Rating,
		Quote:      review.Quote,
		OrderIndex: review.OrderIndex,
		CreatedAt:  review.CreatedAt,
	})
	if err != nil {
		return Review{}, err
	}
	return mapReview(stored), nil
}

func (s orderingStore) UpdateSortIndex(ctx context.Context, id uuid.UUID, index int) error {
	return s.repo.UpdateOrder(ctx, s.profileID, id, index)
}

func (s orderingStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, s.profileID, id)
}

func mapReview(row persistence.Review) Review {
	return Review{
		ID:         row.ID,
		ProfileID:  row.ProfileID,
		Kind:       row.Kind,
		ImageURL:   row.ImageURL,
		StorageKey: row.StorageKey,
		Source:     row.Source,
		Name:       row.Name,
		Event:      row.Event,
		Rating:     row.Rating,
		Quote:      row.Quote,
		OrderIndex: row.OrderIndex,
		CreatedAt:  row.CreatedAt,
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapPersistenceError(err error) error {
	if errors.Is(err, ordering.ErrItemNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
