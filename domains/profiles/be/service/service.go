package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/domains/profiles/be/repo"
	"github.com/zenGate-Global/booking-funnel/platform/go/access"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
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
	ErrNotFound          = errors.New("profile not found")
	ErrConflict          = errors.New("slug is already taken")
	ErrForbidden         = access.ErrForbidden
	ErrUnauthenticated   = access.ErrUnauthenticated
	ErrCreationAdminOnly = errors.New("profile creation is admin-only")
)

const (
	StatusPending  = persistence.ProfileStatusPending
	StatusActive   = persistence.ProfileStatusActive
	StatusRejected = persistence.ProfileStatusRejected
)

var (
	accentPattern   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	whatsappPattern = regexp.MustCompile(`^\+?[0-9]{6,20}$`)
)

// Profile is the domain view of a tenant profile.
type Profile struct {
	ID                 uuid.UUID
	Slug               string
	DisplayName        string
	Status             string
	Theme              string
	AccentColor        string
	HeroHeadline       *string
	HeroSubtext        *string
	WhatsAppNumber     *string
	NotificationEmails []string
	RejectionReason    *string
	ApprovedAt         *time.Time
	ApprovedBy         *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Settings are the platform-wide signup rules.
type Settings struct {
	ProfileCreationMode string
	RequireApproval     bool
	UpdatedAt           time.Time
}

// CreateInput is the signup payload. NotificationEmails is comma separated.
type CreateInput struct {
	Slug               string
	DisplayName        string
	WhatsAppNumber     *string
	NotificationEmails *string
}

// UpdateInput carries the editable setup fields.
type UpdateInput struct {
	DisplayName        *string
	Theme              *string
	AccentColor        *string
	HeroHeadline       *string
	HeroSubtext        *string
	WhatsAppNumber     *string
	NotificationEmails *string
}

// SettingsInput updates the platform settings partially.
type SettingsInput struct {
	ProfileCreationMode *string
	RequireApproval     *bool
}

// PageInvalidator drops cached public pages after edits.
type PageInvalidator interface {
	InvalidateProfile(ctx context.Context, profileID uuid.UUID)
}

// Service defines the business operations for the profiles domain.
type Service interface {
	GetSettings(ctx context.Context, audit requesttrace.AuditInfo) (Settings, error)
	UpdateSettings(ctx context.Context, audit requesttrace.AuditInfo, input SettingsInput) (Settings, error)
	Create(ctx context.Context, audit requesttrace.AuditInfo, input CreateInput) (Profile, error)
	Get(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (Profile, error)
	ListMine(ctx context.Context, audit requesttrace.AuditInfo) ([]Profile, error)
	Update(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, input UpdateInput) (Profile, error)
	AdminList(ctx context.Context, audit requesttrace.AuditInfo, status *string) ([]Profile, error)
	Approve(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (Profile, error)
	Reject(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, reason *string) (Profile, error)
}

type service struct {
	repo  repo.Repository
	guard *access.Guard
	pages PageInvalidator
	now   func() time.Time
}

// New constructs a profiles Service. pages may be nil when no page cache is wired.
func New(r repo.Repository, pages PageInvalidator) Service {
	if r == nil {
		panic("profiles repository is required")
	}
	return &service{repo: r, guard: access.NewGuard(r), pages: pages, now: time.Now}
}

func (s *service) GetSettings(ctx context.Context, audit requesttrace.AuditInfo) (Settings, error) {
	if err := access.RequirePlatformAdmin(audit); err != nil {
		return Settings{}, err
	}
	record, err := s.repo.GetSettings(ctx)
	if err != nil {
		return Settings{}, mapPersistenceError(err)
	}
	return mapSettings(record), nil
}

func (s *service) UpdateSettings(ctx context.Context, audit requesttrace.AuditInfo, input SettingsInput) (Settings, error) {
	if err := access.RequirePlatformAdmin(audit); err != nil {
		return Settings{}, err
	}

	current, err := s.repo.GetSettings(ctx)
	if err != nil {
		return Settings{}, mapPersistenceError(err)
	}

	if input.ProfileCreationMode != nil {
		mode := strings.TrimSpace(*input.ProfileCreationMode)
		if mode != persistence.CreationModeSelfServe && mode != persistence.CreationModeAdminOnly {
			return Settings{}, &ValidationError{Fields: FieldErrors{
				"profileCreationMode": {"profileCreationMode must be self_serve or admin_only"},
			}}
		}
		current.ProfileCreationMode = mode
	}
	if input.RequireApproval != nil {
		current.RequireApproval = *input.RequireApproval
	}

	updated, err := s.repo.UpdateSettings(ctx, current)
	if err != nil {
		return Settings{}, mapPersistenceError(err)
	}
	return mapSettings(updated), nil
}

func (s *service) Create(ctx context.Context, audit requesttrace.AuditInfo, input CreateInput) (Profile, error) {
	userID, err := access.RequireUser(audit)
	if err != nil {
		return Profile{}, err
	}

	fieldErrors := FieldErrors{}

	displayName := strings.TrimSpace(input.DisplayName)
	if n := utf8.RuneCountInString(displayName); n < 2 || n > 80 {
		fieldErrors.add("displayName", "displayName must be between 2 and 80 characters")
	}

	slug, slugErr := persistence.NormalizeSlug(input.Slug)
	if slugErr != nil {
		fieldErrors.add("slug", "slug must be 3-40 characters of a-z, 0-9 or hyphen")
	}

	whatsapp := normalizeWhatsApp(input.WhatsAppNumber, fieldErrors)
	emails := parseEmails(input.NotificationEmails, fieldErrors)

	if len(fieldErrors) > 0 {
		return Profile{}, &ValidationError{Fields: fieldErrors}
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return Profile{}, mapPersistenceError(err)
	}
	if settings.ProfileCreationMode == persistence.CreationModeAdminOnly && !audit.PlatformAdmin {
		return Profile{}, ErrCreationAdminOnly
	}

	status := StatusActive
	if settings.RequireApproval {
		status = StatusPending
	}

	profileID := uuid.New()
	record, err := s.repo.Create(ctx, persistence.CreateProfileParams{
		ProfileID:          profileID,
		Slug:               slug,
		DisplayName:        displayName,
		Status:             status,
		WhatsAppNumber:     whatsapp,
		NotificationEmails: emails,
		OwnerUserID:        userID,
		SeedFields:         formschema.DefaultFields(profileID),
	})
	if err != nil {
		return Profile{}, mapPersistenceError(err)
	}

	return mapProfile(record), nil
}

func (s *service) Get(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (Profile, error) {
	if id == uuid.Nil {
		return Profile{}, ErrNotFound
	}
	if err := s.guard.RequireProfile(ctx, audit, id); err != nil {
		return Profile{}, err
	}

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Profile{}, mapPersistenceError(err)
	}
	return mapProfile(record), nil
}

func (s *service) ListMine(ctx context.Context, audit requesttrace.AuditInfo) ([]Profile, error) {
	userID, err := access.RequireUser(audit)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	return mapProfiles(records), nil
}

func (s *service) Update(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, input UpdateInput) (Profile, error) {
	if id == uuid.Nil {
		return Profile{}, ErrNotFound
	}
	if err := s.guard.RequireProfile(ctx, audit, id); err != nil {
		return Profile{}, err
	}

	params, err := buildUpdateParams(input)
	if err != nil {
		return Profile{}, err
	}

	record, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return Profile{}, mapPersistenceError(err)
	}

	s.invalidate(ctx, id)
	return mapProfile(record), nil
}

func (s *service) AdminList(ctx context.Context, audit requesttrace.AuditInfo, status *string) ([]Profile, error) {
	if err := access.RequirePlatformAdmin(audit); err != nil {
		return nil, err
	}

	if status != nil {
		switch *status {
		case StatusPending, StatusActive, StatusRejected:
		default:
			return nil, &ValidationError{Fields: FieldErrors{"status": {"status must be pending, active or rejected"}}}
		}
	}

	records, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	return mapProfiles(records), nil
}

func (s *service) Approve(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (Profile, error) {
	if err := access.RequirePlatformAdmin(audit); err != nil {
		return Profile{}, err
	}

	approvedBy := string(audit.ActorKind)
	if userID, ok := audit.User(); ok {
		approvedBy = userID
	}

	record, err := s.repo.Approve(ctx, id, approvedBy, s.now().UTC())
	if err != nil {
		return Profile{}, mapPersistenceError(err)
	}

	s.invalidate(ctx, id)
	return mapProfile(record), nil
}

func (s *service) Reject(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, reason *string) (Profile, error) {
	if err := access.RequirePlatformAdmin(audit); err != nil {
		return Profile{}, err
	}

	var cleaned *string
	if reason != nil {
		if trimmed := strings.TrimSpace(*reason); trimmed != "" {
			cleaned = &trimmed
		}
	}

	record, err := s.repo.Reject(ctx, id, cleaned)
	if err != nil {
		return Profile{}, mapPersistenceError(err)
	}

	s.invalidate(ctx, id)
	return mapProfile(record), nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.pages != nil {
		s.pages.InvalidateProfile(ctx, id)
	}
}

func buildUpdateParams(input UpdateInput) (persistence.UpdateProfileParams, error) {
	fieldErrors := FieldErrors{}
	params := persistence.UpdateProfileParams{}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if n := utf8.RuneCountInString(name); n < 2 || n > 80 {
			fieldErrors.add("displayName", "displayName must be between 2 and 80 characters")
		}
		params.DisplayName = &name
	}

	if input.Theme != nil {
		theme := strings.ToLower(strings.TrimSpace(*input.Theme))
		if theme != "dark" && theme != "light" {
			fieldErrors.add("theme", "theme must be dark or light")
		}
		params.Theme = &theme
	}

	if input.AccentColor != nil {
		color := strings.TrimSpace(*input.AccentColor)
		if !accentPattern.MatchString(color) {
			fieldErrors.add("accentColor", "accentColor must be a #rrggbb hex color")
		}
		color = strings.ToLower(color)
		params.AccentColor = &color
	}

	if input.HeroHeadline != nil {
		headline := strings.TrimSpace(*input.HeroHeadline)
		params.HeroHeadline = &headline
	}
	if input.HeroSubtext != nil {
		subtext := strings.TrimSpace(*input.HeroSubtext)
		params.HeroSubtext = &subtext
	}

	if input.WhatsAppNumber != nil {
		number := normalizeWhatsApp(input.WhatsAppNumber, fieldErrors)
		empty := ""
		if number == nil {
			number = &empty
		}
		params.WhatsAppNumber = number
	}

	if input.NotificationEmails != nil {
		emails := parseEmails(input.NotificationEmails, fieldErrors)
		params.NotificationEmails = &emails
	}

	if len(fieldErrors) > 0 {
		return persistence.UpdateProfileParams{}, &ValidationError{Fields: fieldErrors}
	}
	return params, nil
}

// ParseEmails splits a comma separated address list, dropping blanks.
func ParseEmails(csv string) []string {
	out := []string{}
	for _, part := range strings.Split(csv, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func parseEmails(csv *string, fieldErrors FieldErrors) []string {
	if csv == nil {
		return []string{}
	}
	emails := ParseEmails(*csv)
	for _, addr := range emails {
		if !strings.Contains(addr, "@") {
			fieldErrors.add("notificationEmails", fmt.Sprintf("%q is not an email address", addr))
		}
	}
	return emails
}

func normalizeWhatsApp(raw *string, fieldErrors FieldErrors) *string {
	if raw == nil {
		return nil
	}
	number := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(*raw))
	if number == "" {
		return nil
	}
	if !whatsappPattern.MatchString(number) {
		fieldErrors.add("whatsappNumber", "whatsappNumber must contain 6-20 digits with an optional leading +")
	}
	return &number
}

func mapSettings(record persistence.PlatformSettings) Settings {
	return Settings{
		ProfileCreationMode: record.ProfileCreationMode,
		RequireApproval:     record.RequireApproval,
		UpdatedAt:           record.UpdatedAt,
	}
}

func mapProfiles(records []persistence.Profile) []Profile {
	out := make([]Profile, 0, len(records))
	for _, record := range records {
		out = append(out, mapProfile(record))
	}
	return out
}

func mapProfile(record persistence.Profile) Profile {
	emails := record.NotificationEmails
	if emails == nil {
		emails = []string{}
	}
	return Profile{
		ID:                 record.ID,
		Slug:               record.Slug,
		DisplayName:        record.DisplayName,
		Status:             record.Status,
		Theme:              record.Theme,
		AccentColor:        record.AccentColor,
		HeroHeadline:       record.HeroHeadline,
		HeroSubtext:        record.HeroSubtext,
		WhatsAppNumber:     record.WhatsAppNumber,
		NotificationEmails: emails,
		RejectionReason:    record.RejectionReason,
		ApprovedAt:         record.ApprovedAt,
		ApprovedBy:         record.ApprovedBy,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	default:
		return err
	}
}
