package cache

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PublicPageKey is where the rendered public page of a profile is cached.
func PublicPageKey(profileID uuid.UUID) string {
	return "public:page:" + profileID.String()
}

// PageInvalidator drops cached public pages after admin edits.
type PageInvalidator struct {
	store  Store
	logger *zap.Logger
}

func NewPageInvalidator(store Store, logger *zap.Logger) *PageInvalidator {
	if store == nil {
		panic("cache store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageInvalidator{store: store, logger: logger}
}

// InvalidateProfile never fails the caller; a stale page expires with its TTL.
func (p *PageInvalidator) InvalidateProfile(ctx context.Context, profileID uuid.UUID) {
	if err := p.store.Delete(ctx, PublicPageKey(profileID)); err != nil {
		p.logger.Warn("invalidate public page", zap.String("profile_id", profileID.String()), zap.Error(err))
	}
}
