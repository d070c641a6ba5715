package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/booking-funnel/domains/leads/be/repo"
	"github.com/zenGate-Global/booking-funnel/platform/go/access"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/notify"
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
	ErrNotFound        = errors.New("lead not found")
	ErrForbidden       = access.ErrForbidden
	ErrUnauthenticated = access.ErrUnauthenticated
)

// Lead statuses.
const (
	StatusNew       = persistence.LeadStatusNew
	StatusContacted = persistence.LeadStatusContacted
	StatusBooked    = persistence.LeadStatusBooked
)

// Lead is an inbox entry with its values labelled by the current schema.
type Lead struct {
	ID          uuid.UUID
	ProfileID   uuid.UUID
	Status      string
	FormData    formschema.FormData
	Values      []formschema.LabelledValue
	Phone       *string
	Email       *string
	ContactedAt *time.Time
	BookedAt    *time.Time
	CreatedAt   time.Time
}

// SubmitResult tells the intake handler where to send the visitor. Accepted is
// false when the slug does not resolve to an active profile.
type SubmitResult struct {
	Slug     string
	Accepted bool
	LeadID   uuid.UUID
}

// Service defines the business operations for the leads domain.
type Service interface {
	Submit(ctx context.Context, audit requesttrace.AuditInfo, values url.Values) (SubmitResult, error)
	List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, status *string) ([]Lead, error)
	Get(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (Lead, error)
	UpdateStatus(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID, status string) (Lead, error)
	ContactLinks(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (ContactLinks, error)
	Export(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, format string, status *string) (Export, error)
}

type service struct {
	repo      repo.Repository
	guard     *access.Guard
	notifier  notify.Notifier
	validator *formschema.Validator
	now       func() time.Time
}

// New constructs a leads Service. A nil notifier disables email relay.
func New(r repo.Repository, notifier notify.Notifier) Service {
	if r == nil {
		panic("leads repository is required")
	}
	if notifier == nil {
		notifier = notify.Disabled{}
	}
	return &service{
		repo:      r,
		guard:     access.NewGuard(r),
		notifier:  notifier,
		validator: formschema.NewValidator(),
		now:       time.Now,
	}
}

func (s *service) Submit(ctx context.Context, audit requesttrace.AuditInfo, values url.Values) (SubmitResult, error) {
	slug := strings.TrimSpace(values.Get(formschema.SlugParam))
	result := SubmitResult{Slug: slug}

	normalized, err := persistence.NormalizeSlug(slug)
	if err != nil {
		return result, nil
	}
	profile, err := s.repo.GetProfileBySlug(ctx, normalized)
	if errors.Is(err, persistence.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("lookup profile: %w", err)
	}
	if profile.Status != persistence.ProfileStatusActive {
		return result, nil
	}
	result.Slug = profile.Slug

	fields, err := s.repo.ListFields(ctx, profile.ID)
	if err != nil {
		return result, fmt.Errorf("load form schema: %w", err)
	}
	descriptors := formschema.Render(fields)

	data := formschema.Collect(values)
	if err := s.validator.Validate(descriptors, data); err != nil {
		var submissionErr *formschema.SubmissionError
		if errors.As(err, &submissionErr) {
			fieldErrors := FieldErrors{}
			for key, msg := range submissionErr.Fields {
				fieldErrors.add(key, msg)
			}
			return result, &ValidationError{Fields: fieldErrors}
		}
		return result, err
	}

	lead, err := s.repo.Create(ctx, persistence.CreateLeadParams{
		LeadID:    uuid.New(),
		ProfileID: profile.ID,
		FormData:  data,
		Phone:     optional(data.Get("phone")),
		Email:     optional(data.Get("email")),
	})
	if err != nil {
		return result, fmt.Errorf("store lead: %w", err)
	}
	result.Accepted = true
	result.LeadID = lead.ID

	s.relay(ctx, profile, lead.ID, data, descriptors)
	return result, nil
}

// relay emails the lead summary. Delivery failures never fail the submission.
func (s *service) relay(ctx context.Context, profile persistence.Profile, leadID uuid.UUID, data formschema.FormData, descriptors []formschema.Descriptor) {
	whatsapp := ""
	if profile.WhatsAppNumber != nil {
		whatsapp = *profile.WhatsAppNumber
	}
	err := s.notifier.NotifyLead(ctx, notify.LeadNotification{
		LeadID:         leadID,
		To:             profile.NotificationEmails,
		ProfileName:    profile.DisplayName,
		ProfileSlug:    profile.Slug,
		Phone:          data.Get("phone"),
		Email:          data.Get("email"),
		WhatsAppNumber: whatsapp,
		Values:         data.Labelled(descriptors),
	})
	if err != nil {
		platformlogging.FromContextOr(ctx, zap.NewNop()).Warn("lead notification failed",
			zap.String("profile_id", profile.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, status *string) ([]Lead, error) {
	if err := s.guard.RequireProfile(ctx, audit, profileID); err != nil {
		return nil, err
	}
	if status != nil {
		if err := validateStatus(*status); err != nil {
			return nil, err
		}
	}

	descriptors, err := s.descriptors(ctx, profileID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, persistence.ListLeadsParams{ProfileID: profileID, Status: status, Limit: persistence.MaxLeadPage})
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	leads := make([]Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, mapLead(row, descriptors))
	}
	return leads, nil
}

func (s *service) Get(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (Lead, error) {
	if err := s.guard.RequireProfile(ctx, audit, profileID); err != nil {
		return Lead{}, err
	}
	row, err := s.repo.Get(ctx, profileID, leadID)
	if err != nil {
		return Lead{}, mapPersistenceError(err)
	}
	descriptors, err := s.descriptors(ctx, profileID)
	if err != nil {
		return Lead{}, err
	}
	return mapLead(row, descriptors), nil
}

func (s *service) UpdateStatus(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID, status string) (Lead, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if err := validateStatus(status); err != nil {
		return Lead{}, err
	}
	if err := s.guard.RequireProfile(ctx, audit, profileID); err != nil {
		return Lead{}, err
	}

	row, err := s.repo.UpdateStatus(ctx, profileID, leadID, status, s.now().UTC())
	if err != nil {
		return Lead{}, mapPersistenceError(err)
	}
	descriptors, err := s.descriptors(ctx, profileID)
	if err != nil {
		return Lead{}, err
	}
	return mapLead(row, descriptors), nil
}

func (s *service) descriptors(ctx context.Context, profileID uuid.UUID) ([]formschema.Descriptor, error) {
	fields, err := s.repo.ListFields(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load form schema: %w", err)
	}
	return formschema.Render(fields), nil
}

func validateStatus(status string) error {
	switch status {
	case StatusNew, StatusContacted, StatusBooked:
		return nil
	default:
		fieldErrors := FieldErrors{}
		fieldErrors.add("status", "status must be one of new, contacted, booked")
		return &ValidationError{Fields: fieldErrors}
	}
}

func mapLead(row persistence.Lead, descriptors []formschema.Descriptor) Lead {
	data := formschema.FormData(row.FormData)
	if data == nil {
		data = formschema.FormData{}
	}
	return Lead{
		ID:          row.ID,
		ProfileID:   row.ProfileID,
		Status:      row.Status,
		FormData:    data,
		Values:      data.Labelled(descriptors),
		Phone:       row.Phone,
		Email:       row.Email,
		ContactedAt: row.ContactedAt,
		BookedAt:    row.BookedAt,
		CreatedAt:   row.CreatedAt,
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func mapPersistenceError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
