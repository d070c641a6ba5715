package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/booking-funnel/platform/go/cache"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

type mockRepository struct {
	profile      persistence.Profile
	profileErr   error
	gallery      []persistence.GalleryItem
	reviews      []persistence.Review
	fields       []formschema.Field
	galleryCalls atomic.Int32
}

func (m *mockRepository) GetProfileBySlug(ctx context.Context, slug string) (persistence.Profile, error) {
	if m.profileErr != nil {
		return persistence.Profile{}, m.profileErr
	}
	if slug != m.profile.Slug {
		return persistence.Profile{}, persistence.ErrNotFound
	}
	return m.profile, nil
}

func (m *mockRepository) ListGalleryItems(ctx context.Context, profileID uuid.UUID) ([]persistence.GalleryItem, error) {
	m.galleryCalls.Add(1)
	return append([]persistence.GalleryItem(nil), m.gallery...), nil
}

func (m *mockRepository) ListReviews(ctx context.Context, profileID uuid.UUID) ([]persistence.Review, error) {
	return append([]persistence.Review(nil), m.reviews...), nil
}

func (m *mockRepository) ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error) {
	return m.fields, nil
}

func newRepo() *mockRepository {
	number := "+1 415-555-2671"
	id := uuid.New()
	return &mockRepository{
		profile: persistence.Profile{
			ID:             id,
			Slug:           "dj-nova",
			DisplayName:    "DJ Nova",
			Status:         persistence.ProfileStatusActive,
			Theme:          "dark",
			AccentColor:    "#27c26a",
			WhatsAppNumber: &number,
		},
		gallery: []persistence.GalleryItem{
			{ID: uuid.New(), ProfileID: id, Kind: "image", URL: "https://cdn/b.jpg", OrderIndex: 20},
			{ID: uuid.New(), ProfileID: id, Kind: "youtube", URL: "https://www.youtube.com/embed/abc", OrderIndex: 10},
		},
	}
}

func TestGetBuildsPage(t *testing.T) {
	t.Parallel()

	repo := newRepo()
	page, err := New(repo, nil, 0).Get(context.Background(), "DJ-Nova")
	require.NoError(t, err)

	require.Equal(t, "DJ Nova", page.DisplayName)
	require.Len(t, page.Gallery, 2)
	require.Equal(t, 10, page.Gallery[0].OrderIndex)
	require.Empty(t, page.Reviews)
	require.Equal(t, formschema.FallbackDescriptors(), page.Form)
	require.NotNil(t, page.WhatsAppURL)
	require.True(t, strings.HasPrefix(*page.WhatsAppURL, "https://wa.me/14155552671?text="))
}

func TestGetInactiveProfileNotFound(t *testing.T) {
	t.Parallel()

	repo := newRepo()
	repo.profile.Status = persistence.ProfileStatusPending

	_, err := New(repo, nil, 0).Get(context.Background(), "dj-nova")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = New(repo, nil, 0).Get(context.Background(), "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetStoreFailure(t *testing.T) {
	t.Parallel()

	repo := newRepo()
	repo.profileErr = errors.New("db down")

	_, err := New(repo, nil, 0).Get(context.Background(), "dj-nova")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestGetServesFromCacheUntilInvalidated(t *testing.T) {
	t.Parallel()

	repo := newRepo()
	store := cache.NewMemoryStore()
	svc := New(repo, store, time.Minute)
	ctx := context.Background()

	_, err := svc.Get(ctx, "dj-nova")
	require.NoError(t, err)
	_, err = svc.Get(ctx, "dj-nova")
	require.NoError(t, err)
	require.Equal(t, int32(1), repo.galleryCalls.Load())

	cache.NewPageInvalidator(store, nil).InvalidateProfile(ctx, repo.profile.ID)
	_, err = svc.Get(ctx, "dj-nova")
	require.NoError(t, err)
	require.Equal(t, int32(2), repo.galleryCalls.Load())
}

func TestCachedPageHiddenAfterDeactivation(t *testing.T) {
	t.Parallel()

	repo := newRepo()
	svc := New(repo, cache.NewMemoryStore(), time.Minute)

	_, err := svc.Get(context.Background(), "dj-nova")
	require.NoError(t, err)

	repo.profile.Status = persistence.ProfileStatusRejected
	_, err = svc.Get(context.Background(), "dj-nova")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWhatsAppURL(t *testing.T) {
	t.Parallel()

	repo := newRepo()
	link, err := New(repo, nil, 0).WhatsAppURL(context.Background(), "dj-nova")
	require.NoError(t, err)
	require.Equal(t, "https://wa.me/14155552671?text=Hi%21+I+just+submitted+a+booking+request.+Can+you+confirm+availability%3F", link)

	repo.profile.WhatsAppNumber = nil
	_, err = New(repo, nil, 0).WhatsAppURL(context.Background(), "dj-nova")
	require.ErrorIs(t, err, ErrNoWhatsApp)
}
