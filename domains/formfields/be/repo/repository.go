package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// Repository defines the persistence operations required by the form fields service.
// It is the store the schema engine loads from.
type Repository interface {
	formschema.Store
	IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error)
}

type postgresRepository struct {
	fields   *persistence.FormFieldStore
	profiles *persistence.ProfileStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(fields *persistence.FormFieldStore, profiles *persistence.ProfileStore) Repository {
	if fields == nil {
		panic("form field store is required")
	}
	if profiles == nil {
		panic("profile store is required")
	}
	return &postgresRepository{fields: fields, profiles: profiles}
}

func (r *postgresRepository) ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error) {
	return r.fields.ListFields(ctx, profileID)
}

func (r *postgresRepository) InsertField(ctx context.Context, field formschema.Field) (formschema.Field, error) {
	return r.fields.InsertField(ctx, field)
}

func (r *postgresRepository) UpdateField(ctx context.Context, field formschema.Field) (formschema.Field, error) {
	return r.fields.UpdateField(ctx, field)
}

func (r *postgresRepository) UpdateFieldOrder(ctx context.Context, profileID, fieldID uuid.UUID, orderIndex int) error {
	return r.fields.UpdateFieldOrder(ctx, profileID, fieldID, orderIndex)
}

func (r *postgresRepository) DeleteField(ctx context.Context, profileID, fieldID uuid.UUID) error {
	return r.fields.DeleteField(ctx, profileID, fieldID)
}

func (r *postgresRepository) IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error) {
	return r.profiles.IsMember(ctx, profileID, userID)
}
