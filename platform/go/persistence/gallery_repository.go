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

const galleryColumns = `id, profile_id, kind, title, url, storage_key, thumbnail_url, order_index, created_at`

// GalleryItem represents a row in the gallery_items table.
type GalleryItem struct {
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

// GalleryStore persists gallery_items rows.
type GalleryStore struct {
	pool *pgxpool.Pool
}

// NewGalleryStore returns a store bound to pool.
func NewGalleryStore(ctx context.Context, pool *pgxpool.Pool) (*GalleryStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &GalleryStore{pool: pool}, nil
}

// ListGalleryItems returns the profile's items by ascending order index.
func (s *GalleryStore) ListGalleryItems(ctx context.Context, profileID uuid.UUID) ([]GalleryItem, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+galleryColumns+`
        FROM gallery_items
        WHERE profile_id = $1
        ORDER BY order_index ASC, created_at ASC
    `, profileID)
	if err != nil {
		return nil, fmt.Errorf("list gallery items: %w", err)
	}
	defer rows.Close()

	items := make([]GalleryItem, 0)
	for rows.Next() {
		item, scanErr := scanGalleryItem(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan gallery item: %w", scanErr)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery items: %w", err)
	}
	return items, nil
}

// GetGalleryItem returns one item scoped to its profile.
func (s *GalleryStore) GetGalleryItem(ctx context.Context, profileID, id uuid.UUID) (GalleryItem, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+galleryColumns+` FROM gallery_items WHERE id = $1 AND profile_id = $2`, id, profileID)
	item, err := scanGalleryItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return GalleryItem{}, ErrNotFound
		}
		return GalleryItem{}, fmt.Errorf("get gallery item: %w", err)
	}
	return item, nil
}

// InsertGalleryItem stores a new item.
func (s *GalleryStore) InsertGalleryItem(ctx context.Context, item GalleryItem) (GalleryItem, error) {
	row := s.pool.QueryRow(ctx, `
        INSERT INTO gallery_items (id, profile_id, kind, title, url, storage_key, thumbnail_url, order_index)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+galleryColumns,
		item.ID, item.ProfileID, item.Kind, item.Title, item.URL, item.StorageKey, item.ThumbnailURL, item.OrderIndex,
	)
	stored, err := scanGalleryItem(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return GalleryItem{}, ErrNotFound
		}
		return GalleryItem{}, fmt.Errorf("insert gallery item: %w", err)
	}
	return stored, nil
}

// UpdateGalleryOrder sets one row's order index.
func (s *GalleryStore) UpdateGalleryOrder(ctx context.Context, profileID, id uuid.UUID, orderIndex int) error {
	return updateOrderIndex(ctx, s.pool, "gallery_items", profileID, id, orderIndex)
}

// DeleteGalleryItem removes one row.
func (s *GalleryStore) DeleteGalleryItem(ctx context.Context, profileID, id uuid.UUID) error {
	return deleteScoped(ctx, s.pool, "gallery_items", profileID, id)
}

func scanGalleryItem(scanner rowScanner) (GalleryItem, error) {
	var (
		item       GalleryItem
		title      pgtype.Text
		storageKey pgtype.Text
		thumbnail  pgtype.Text
	)
	if err := scanner.Scan(&item.ID, &item.ProfileID, &item.Kind, &title, &item.URL, &storageKey, &thumbnail, &item.OrderIndex, &item.CreatedAt); err != nil {
		return GalleryItem{}, err
	}
	item.Title = textPtr(title)
	item.StorageKey = textPtr(storageKey)
	item.ThumbnailURL = textPtr(thumbnail)
	return item, nil
}
