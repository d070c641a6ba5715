package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/publicpage/be/repo"
	"github.com/zenGate-Global/booking-funnel/platform/go/cache"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// ErrNotFound is returned for unknown slugs and profiles that are not active.
var ErrNotFound = errors.New("page not found")

// ErrNoWhatsApp is returned when the profile has no WhatsApp number configured.
var ErrNoWhatsApp = errors.New("no WhatsApp number configured")

// DefaultTTL bounds how stale a cached page may get when an invalidation is missed.
const DefaultTTL = 5 * time.Minute

// WhatsAppGreeting prefills the chat a visitor opens from the public page.
const WhatsAppGreeting = "Hi! I just submitted a booking request. Can you confirm availability?"

// GalleryItem is a public gallery entry.
type GalleryItem struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Title        *string   `json:"title,omitempty"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnailUrl,omitempty"`
	OrderIndex   int       `json:"orderIndex"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Review is a public review entry.
type Review struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	Source     *string   `json:"source,omitempty"`
	Name       *string   `json:"name,omitempty"`
	Event      *string   `json:"event,omitempty"`
	Rating     *int      `json:"rating,omitempty"`
	Quote      *string   `json:"quote,omitempty"`
	OrderIndex int       `json:"orderIndex"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Page is everything the public renderer needs for one profile.
type Page struct {
	Slug         string                  `json:"slug"`
	DisplayName  string                  `json:"displayName"`
	Theme        string                  `json:"theme"`
	AccentColor  string                  `json:"accentColor"`
	HeroHeadline *string                 `json:"heroHeadline,omitempty"`
	HeroSubtext  *string                 `json:"heroSubtext,omitempty"`
	WhatsAppURL  *string                 `json:"whatsappUrl,omitempty"`
	Gallery      []GalleryItem           `json:"gallery"`
	Reviews      []Review                `json:"reviews"`
	Form         []formschema.Descriptor `json:"form"`
}

// Service defines the read operations of the public page.
type Service interface {
	Get(ctx context.Context, slug string) (Page, error)
	WhatsAppURL(ctx context.Context, slug string) (string, error)
}

type service struct {
	repo  repo.Repository
	cache cache.Store
	ttl   time.Duration
}

// New constructs a public page Service. A nil store disables caching.
func New(r repo.Repository, store cache.Store, ttl time.Duration) Service {
	if r == nil {
		panic("public page repository is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &service{repo: r, cache: store, ttl: ttl}
}

// Get resolves the slug on every call so deactivating a profile takes effect
// immediately; only the assembled page body is cached.
func (s *service) Get(ctx context.Context, slug string) (Page, error) {
	profile, err := s.activeProfile(ctx, slug)
	if err != nil {
		return Page{}, err
	}

	logger := platformlogging.FromContextOr(ctx, zap.NewNop())
	key := cache.PublicPageKey(profile.ID)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var page Page
			if jsonErr := json.Unmarshal(raw, &page); jsonErr == nil {
				return page, nil
			}
			logger.Warn("discarding undecodable cached page", zap.String("profile_id", profile.ID.String()))
		case !errors.Is(err, cache.ErrMiss):
			logger.Warn("read cached page", zap.String("profile_id", profile.ID.String()), zap.Error(err))
		}
	}

	page, err := s.build(ctx, profile)
	if err != nil {
		return Page{}, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(page)
		if err == nil {
			err = s.cache.Set(ctx, key, raw, s.ttl)
		}
		if err != nil {
			logger.Warn("cache public page", zap.String("profile_id", profile.ID.String()), zap.Error(err))
		}
	}
	return page, nil
}

func (s *service) WhatsAppURL(ctx context.Context, slug string) (string, error) {
	profile, err := s.activeProfile(ctx, slug)
	if err != nil {
		return "", err
	}
	link, ok := whatsAppLink(profile.WhatsAppNumber)
	if !ok {
		return "", ErrNoWhatsApp
	}
	return link, nil
}

func (s *service) activeProfile(ctx context.Context, slug string) (persistence.Profile, error) {
	normalized, err := persistence.NormalizeSlug(slug)
	if err != nil {
		return persistence.Profile{}, ErrNotFound
	}
	profile, err := s.repo.GetProfileBySlug(ctx, normalized)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Profile{}, ErrNotFound
		}
		return persistence.Profile{}, fmt.Errorf("lookup profile: %w", err)
	}
	if profile.Status != persistence.ProfileStatusActive {
		return persistence.Profile{}, ErrNotFound
	}
	return profile, nil
}

func (s *service) build(ctx context.Context, profile persistence.Profile) (Page, error) {
	items, err := s.repo.ListGalleryItems(ctx, profile.ID)
	if err != nil {
		return Page{}, fmt.Errorf("list gallery: %w", err)
	}
	reviews, err := s.repo.ListReviews(ctx, profile.ID)
	if err != nil {
		return Page{}, fmt.Errorf("list reviews: %w", err)
	}
	fields, err := s.repo.ListFields(ctx, profile.ID)
	if err != nil {
		return Page{}, fmt.Errorf("load form schema: %w", err)
	}

	page := Page{
		Slug:         profile.Slug,
		DisplayName:  profile.DisplayName,
		Theme:        profile.Theme,
		AccentColor:  profile.AccentColor,
		HeroHeadline: profile.HeroHeadline,
		HeroSubtext:  profile.HeroSubtext,
		Gallery:      toGallery(items),
		Reviews:      toReviews(reviews),
		Form:         formschema.Render(fields),
	}
	if link, ok := whatsAppLink(profile.WhatsAppNumber); ok {
		page.WhatsAppURL = &link
	}
	return page, nil
}

func toGallery(rows []persistence.GalleryItem) []GalleryItem {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OrderIndex < rows[j].OrderIndex })
	out := make([]GalleryItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, GalleryItem{
			ID:           row.ID.String(),
			Kind:         row.Kind,
			Title:        row.Title,
			URL:          row.URL,
			ThumbnailURL: row.ThumbnailURL,
			OrderIndex:   row.OrderIndex,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out
}

func toReviews(rows []persistence.Review) []Review {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].OrderIndex < rows[j].OrderIndex })
	out := make([]Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, Review{
			ID:         row.ID.String(),
			Kind:       row.Kind,
			ImageURL:   row.ImageURL,
			Source:     row.Source,
			Name:       row.Name,
			Event:      row.Event,
			Rating:     row.Rating,
			Quote:      row.Quote,
			OrderIndex: row.OrderIndex,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out
}

func whatsAppLink(number *string) (string, bool) {
	if number == nil {
		return "", false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, *number)
	if digits == "" {
		return "", false
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(WhatsAppGreeting), true
}
