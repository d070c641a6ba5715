package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
)

// Repository defines the persistence operations required by the leads service.
type Repository interface {
	GetProfileBySlug(ctx context.Context, slug string) (persistence.Profile, error)
	ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error)
	Create(ctx context.Context, params persistence.CreateLeadParams) (persistence.Lead, error)
	List(ctx context.Context, params persistence.ListLeadsParams) ([]persistence.Lead, error)
	Get(ctx context.Context, profileID, id uuid.UUID) (persistence.Lead, error)
	UpdateStatus(ctx context.Context, profileID, id uuid.UUID, status string, at time.Time) (persistence.Lead, error)
	IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error)
}

type postgresRepository struct {
	leads    *persistence.LeadStore
	fields   *persistence.FormFieldStore
	profiles *persistence.ProfileStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(leads *persistence.LeadStore, fields *persistence.FormFieldStore, profiles *persistence.ProfileStore) Repository {
	if leads == nil {
		panic("lead store is required")
	}
	if fields == nil {
		panic("form field store is required")
	}
	if profiles == nil {
		panic("profile store is required")
	}
	return &postgresRepository{leads: leads, fields: fields, profiles: profiles}
}

func (r *postgresRepository) GetProfileBySlug(ctx context.Context, slug string) (persistence.Profile, error) {
	return r.profiles.GetProfileBySlug(ctx, slug)
}

func (r *postgresRepository) ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error) {
	return r.fields.ListFields(ctx, profileID)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateLeadParams) (persistence.Lead, error) {
	return r.leads.CreateLead(ctx, params)
}

func (r *postgresRepository) List(ctx context.Context, params persistence.ListLeadsParams) ([]persistence.Lead, error) {
	return r.leads.ListLeads(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, profileID, id uuid.UUID) (persistence.Lead, error) {
	return r.leads.GetLead(ctx, profileID, id)
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, profileID, id uuid.UUID, status string, at time.Time) (persistence.Lead, error) {
	return r.leads.UpdateLeadStatus(ctx, profileID, id, status, at)
}

func (r *postgresRepository) IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error) {
	return r.profiles.IsMember(ctx, profileID, userID)
}
