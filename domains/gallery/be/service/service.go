package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/gallery/be/repo"
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
	ErrNotFound        = errors.New("gallery item not found")
	ErrForbidden       = access.ErrForbidden
	ErrUnauthenticated = access.ErrUnauthenticated
)

// Item kinds.
const (
	KindImage   = "image"
	KindYouTube = "youtube"
	KindMP4     = "mp4"
)

// Item is one gallery entry.
type Item struct {
	ID           uuid.UUID
	ProfileID    uuid.UUID
	Kind         string
	Title        *string
	URL          string
	StorageKey   *string
	ThumbnailURL *string
	OrderIndex   int
	CreatedAt    time.Time
}

func (i Item) ItemID() uuid.UUID { return i.ID }
func (i Item) SortIndex() int    { return i.OrderIndex }

func (i Item) WithSortIndex(index int) Item {
	i.OrderIndex = index
	return i
}

// UploadInput is one multipart file.
type UploadInput struct {
	Filename    string
	ContentType string
	Title       *string
	Body        io.Reader
}

// Media is where uploaded files go.
type Media struct {
	Blobs  storage.Blobs
	Bucket string
}

// PageInvalidator drops cached public pages after edits.
type PageInvalidator interface {
	InvalidateProfile(ctx context.Context, profileID uuid.UUID)
}

// Service defines the business operations for the gallery domain.
type Service interface {
	List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) ([]Item, error)
	AddYouTube(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, rawURL string, title *string) (Item, error)
	Upload(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input UploadInput) (Item, error)
	Delete(ctx context.Context, audit requesttrace.AuditInfo, profileID, itemID uuid.UUID) error
	Move(ctx context.Context, audit requesttrace.AuditInfo, profileID, itemID uuid.UUID, direction string) ([]Item, error)
}

type service struct {
	repo  repo.Repository
	guard *access.Guard
	media Media
	pages PageInvalidator
	now   func() time.Time
}

// New constructs a gallery Service. pages may be nil.
func New(r repo.Repository, media Media, pages PageInvalidator) Service {
	if r == nil {
		panic("gallery repository is required")
	}
	if media.Blobs == nil {
		panic("media storage is required")
	}
	if media.Bucket == "" {
		media.Bucket = storage.DefaultBucket
	}
	return &service{repo: r, guard: access.NewGuard(r), media: media, pages: pages, now: time.Now}
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) ([]Item, error) {
	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return nil, err
	}
	return collection.Items(), nil
}

func (s *service) AddYouTube(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, rawURL string, title *string) (Item, error) {
	embed, ok := YouTubeEmbed(rawURL)
	if !ok {
		fieldErrors := FieldErrors{}
		fieldErrors.add("url", "paste a YouTube URL or video id")
		return Item{}, &ValidationError{Fields: fieldErrors}
	}

	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return Item{}, err
	}

	thumbnail := YouTubeThumbnail(embed)
	stored, _, err := collection.Append(ctx, Item{
		ID:           uuid.New(),
		ProfileID:    profileID,
		Kind:         KindYouTube,
		Title:        trimmedOrNil(title),
		URL:          embed,
		ThumbnailURL: &thumbnail,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return Item{}, mapPersistenceError(err)
	}

	s.invalidate(ctx, profileID)
	return stored, nil
}

func (s *service) Upload(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input UploadInput) (Item, error) {
	kind, folder, ok := classifyUpload(input.Filename, input.ContentType)
	if !ok {
		fieldErrors := FieldErrors{}
		fieldErrors.add("file", "upload an image or an MP4 video")
		return Item{}, &ValidationError{Fields: fieldErrors}
	}
	if input.Body == nil {
		fieldErrors := FieldErrors{}
		fieldErrors.add("file", "file is required")
		return Item{}, &ValidationError{Fields: fieldErrors}
	}

	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return Item{}, err
	}

	now := s.now().UTC()
	loc, err := storage.ResolveObjectLocation(s.media.Bucket, profileID, folder, input.Filename, now)
	if err != nil {
		return Item{}, fmt.Errorf("resolve upload location: %w", err)
	}
	publicURL, err := s.media.Blobs.Put(ctx, loc, input.ContentType, input.Body)
	if err != nil {
		return Item{}, fmt.Errorf("store upload: %w", err)
	}

	title := trimmedOrNil(input.Title)
	if title == nil {
		title = trimmedOrNil(&input.Filename)
	}
	key := loc.Key
	stored, _, err := collection.Append(ctx, Item{
		ID:         uuid.New(),
		ProfileID:  profileID,
		Kind:       kind,
		Title:      title,
		URL:        publicURL,
		StorageKey: &key,
		CreatedAt:  now,
	})
	if err != nil {
		s.discardBlob(ctx, loc)
		return Item{}, mapPersistenceError(err)
	}

	s.invalidate(ctx, profileID)
	return stored, nil
}

func (s *service) Delete(ctx context.Context, audit requesttrace.AuditInfo, profileID, itemID uuid.UUID) error {
	collection, err := s.collection(ctx, audit, profileID)
	if err != nil {
		return err
	}

	item, ok := collection.Find(itemID)
	if !ok {
		return ErrNotFound
	}
	if _, err := collection.Remove(ctx, itemID); err != nil {
		return mapPersistenceError(err)
	}
	if item.StorageKey != nil {
		s.discardBlob(ctx, storage.ObjectLocation{Bucket: s.media.Bucket, Key: *item.StorageKey})
	}

	s.invalidate(ctx, profileID)
	return nil
}

func (s *service) Move(ctx context.Context, audit requesttrace.AuditInfo, profileID, itemID uuid.UUID, direction string) ([]Item, error) {
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

	res, err := collection.Move(ctx, itemID, dir)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	if res.Changed {
		s.invalidate(ctx, profileID)
	}
	return collection.Items(), nil
}

func (s *service) collection(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) (*ordering.Collection[Item], error) {
	if err := s.guard.RequireProfile(ctx, audit, profileID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list gallery items: %w", err)
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapItem(row))
	}
	return ordering.NewCollection[Item](profileID, orderingStore{repo: s.repo, profileID: profileID}, items), nil
}

func (s *service) discardBlob(ctx context.Context, loc storage.ObjectLocation) {
	if err := s.media.Blobs.Delete(ctx, loc); err != nil {
		platformlogging.FromContextOr(ctx, zap.NewNop()).Warn("gallery media cleanup failed",
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

// classifyUpload maps a file to its kind and storage folder.
func classifyUpload(filename, contentType string) (kind string, folder storage.Folder, ok bool) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage, storage.FolderGallery, true
	case contentType == "video/mp4", storage.Extension(filename) == "mp4":
		return KindMP4, storage.FolderVideos, true
	default:
		return "", "", false
	}
}

type orderingStore struct {
	repo      repo.Repository
	profileID uuid.UUID
}

func (s orderingStore) Insert(ctx context.Context, item Item) (Item, error) {
	stored, err := s.repo.Insert(ctx, persistence.GalleryItem{
		ID:           item.ID,
		ProfileID:    item.ProfileID,
		Kind:         item.Kind,
		Title:        item.Title,
		URL:          item.URL,
		StorageKey:   item.StorageKey,
		ThumbnailURL: item.ThumbnailURL,
		OrderIndex:   item.OrderIndex,
		CreatedAt:    item.CreatedAt,
	})
	if err != nil {
		return Item{}, err
	}
	return mapItem(stored), nil
}

func (s orderingStore) UpdateSortIndex(ctx context.Context, id uuid.UUID, index int) error {
	return s.repo.UpdateOrder(ctx, s.profileID, id, index)
}

func (s orderingStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, s.profileID, id)
}

func mapItem(row persistence.GalleryItem) Item {
	return Item{
		ID:           row.ID,
		ProfileID:    row.ProfileID,
		Kind:         row.Kind,
		Title:        row.Title,
		URL:          row.URL,
		StorageKey:   row.StorageKey,
		ThumbnailURL: row.ThumbnailURL,
		OrderIndex:   row.OrderIndex,
		CreatedAt:    row.CreatedAt,
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
	switch {
	case errors.Is(err, ordering.ErrItemNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
