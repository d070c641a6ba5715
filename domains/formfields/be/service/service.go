package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/domains/formfields/be/repo"
	"github.com/zenGate-Global/booking-funnel/platform/go/access"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/ordering"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
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
	ErrNotFound        = errors.New("form field not found")
	ErrLocked          = errors.New("form field is locked")
	ErrForbidden       = access.ErrForbidden
	ErrUnauthenticated = access.ErrUnauthenticated
)

// Schema is a profile's stored fields plus the descriptors the public form renders.
type Schema struct {
	Fields   []formschema.Field
	Rendered []formschema.Descriptor
}

// AddInput describes a new field. Options is comma separated and kept only for selects.
type AddInput struct {
	Label    string
	Type     string
	Required bool
	Options  string
}

// UpdateInput is a partial field update.
type UpdateInput struct {
	Label    *string
	Type     *string
	Required *bool
	Options  *string
}

// PageInvalidator drops cached public pages after edits.
type PageInvalidator interface {
	InvalidateProfile(ctx context.Context, profileID uuid.UUID)
}

// Service defines the business operations for a profile's form schema.
type Service interface {
	List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) (Schema, error)
	// Add returns nil without error when the label is blank.
	Add(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input AddInput) (*formschema.Field, error)
	Update(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, input UpdateInput) (formschema.Field, error)
	Delete(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID) error
	Move(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, direction string) ([]formschema.Field, error)
}

type service struct {
	repo  repo.Repository
	guard *access.Guard
	pages PageInvalidator
}

// New constructs a form fields Service. pages may be nil.
func New(r repo.Repository, pages PageInvalidator) Service {
	if r == nil {
		panic("form fields repository is required")
	}
	return &service{repo: r, guard: access.NewGuard(r), pages: pages}
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) (Schema, error) {
	engine, err := s.engine(ctx, audit, profileID)
	if err != nil {
		return Schema{}, err
	}
	return Schema{Fields: engine.Fields(), Rendered: engine.RenderSchema()}, nil
}

func (s *service) Add(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input AddInput) (*formschema.Field, error) {
	fieldType := formschema.TypeText
	if input.Type != "" {
		parsed, err := formschema.ParseFieldType(input.Type)
		if err != nil {
			fieldErrors := FieldErrors{}
			fieldErrors.add("type", err.Error())
			return nil, &ValidationError{Fields: fieldErrors}
		}
		fieldType = parsed
	}

	engine, err := s.engine(ctx, audit, profileID)
	if err != nil {
		return nil, err
	}

	field, err := engine.AddField(ctx, input.Label, fieldType, input.Required, formschema.ParseOptions(input.Options))
	if errors.Is(err, formschema.ErrBlankLabel) {
		return nil, nil
	}
	if err != nil {
		return nil, mapEngineError(err)
	}

	s.invalidate(ctx, profileID)
	return &field, nil
}

func (s *service) Update(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, input UpdateInput) (formschema.Field, error) {
	patch := formschema.FieldPatch{Label: input.Label, Required: input.Required}
	if input.Type != nil {
		parsed, err := formschema.ParseFieldType(*input.Type)
		if err != nil {
			fieldErrors := FieldErrors{}
			fieldErrors.add("type", err.Error())
			return formschema.Field{}, &ValidationError{Fields: fieldErrors}
		}
		patch.Type = &parsed
	}
	if input.Options != nil {
		options := formschema.ParseOptions(*input.Options)
		patch.Options = &options
	}

	engine, err := s.engine(ctx, audit, profileID)
	if err != nil {
		return formschema.Field{}, err
	}

	field, err := engine.UpdateField(ctx, fieldID, patch)
	if err != nil {
		return formschema.Field{}, mapEngineError(err)
	}

	s.invalidate(ctx, profileID)
	return field, nil
}

func (s *service) Delete(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID) error {
	engine, err := s.engine(ctx, audit, profileID)
	if err != nil {
		return err
	}
	if err := engine.DeleteField(ctx, fieldID); err != nil {
		return mapEngineError(err)
	}

	s.invalidate(ctx, profileID)
	return nil
}

func (s *service) Move(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, direction string) ([]formschema.Field, error) {
	dir, err := ordering.ParseDirection(direction)
	if err != nil {
		fieldErrors := FieldErrors{}
		fieldErrors.add("direction", err.Error())
		return nil, &ValidationError{Fields: fieldErrors}
	}

	engine, err := s.engine(ctx, audit, profileID)
	if err != nil {
		return nil, err
	}

	res, err := engine.MoveField(ctx, fieldID, dir)
	if err != nil {
		return nil, mapEngineError(err)
	}

	if res.Changed {
		s.invalidate(ctx, profileID)
	}
	return engine.Fields(), nil
}

func (s *service) engine(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) (*formschema.Engine, error) {
	if err := s.guard.RequireProfile(ctx, audit, profileID); err != nil {
		return nil, err
	}
	engine, err := formschema.Load(ctx, s.repo, profileID)
	if err != nil {
		return nil, fmt.Errorf("load form schema: %w", err)
	}
	return engine, nil
}

func (s *service) invalidate(ctx context.Context, profileID uuid.UUID) {
	if s.pages != nil {
		s.pages.InvalidateProfile(ctx, profileID)
	}
}

func mapEngineError(err error) error {
	var fieldErrors FieldErrors
	switch {
	case errors.Is(err, formschema.ErrFieldNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, formschema.ErrProtectedField),
		errors.Is(err, formschema.ErrLockedType),
		errors.Is(err, formschema.ErrLockedRequired):
		return fmt.Errorf("%w: %v", ErrLocked, err)
	case errors.Is(err, formschema.ErrBlankLabel):
		fieldErrors = FieldErrors{}
		fieldErrors.add("label", "label is required")
	case errors.Is(err, formschema.ErrInvalidType):
		fieldErrors = FieldErrors{}
		fieldErrors.add("type", err.Error())
	default:
		return err
	}
	return &ValidationError{Fields: fieldErrors}
}
