package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
)

// Profile statuses.
const (
	ProfileStatusPending  = "pending"
	ProfileStatusActive   = "active"
	ProfileStatusRejected = "rejected"
)

// MemberRoleOwner is the role granted to a profile's creator.
const MemberRoleOwner = "owner"

const profileColumns = `id, slug, display_name, status, theme, accent_color, hero_headline, hero_subtext,
        whatsapp_number, notification_emails, owner_user_id, approved_at, approved_by, rejection_reason,
        created_at, updated_at`

// Profile represents a row in the profiles table.
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
	OwnerUserID        string
	ApprovedAt         *time.Time
	ApprovedBy         *string
	RejectionReason    *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProfileStore exposes persistence helpers for profiles and their membership.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore returns a store bound to pool.
func NewProfileStore(ctx context.Context, pool *pgxpool.Pool) (*ProfileStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ProfileStore{pool: pool}, nil
}

// CreateProfileParams captures the fields required to insert a profile.
type CreateProfileParams struct {
	ProfileID          uuid.UUID
	Slug               string
	DisplayName        string
	Status             string
	WhatsAppNumber     *string
	NotificationEmails []string
	OwnerUserID        string
	SeedFields         []formschema.Field
}

// CreateProfile inserts the profile, its owner membership and the seed form
// fields in one transaction.
func (s *ProfileStore) CreateProfile(ctx context.Context, params CreateProfileParams) (Profile, error) {
	if params.ProfileID == uuid.Nil {
		return Profile{}, errors.New("profile id is required")
	}
	if strings.TrimSpace(params.OwnerUserID) == "" {
		return Profile{}, errors.New("owner user id is required")
	}

	slug, err := NormalizeSlug(params.Slug)
	if err != nil {
		return Profile{}, err
	}

	emails := params.NotificationEmails
	if emails == nil {
		emails = []string{}
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Profile{}, fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx, `
        INSERT INTO profiles (id, slug, display_name, status, whatsapp_number, notification_emails, owner_user_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+profileColumns,
		params.ProfileID, slug, strings.TrimSpace(params.DisplayName), params.Status,
		params.WhatsAppNumber, emails, params.OwnerUserID,
	)
	profile, err := scanProfile(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Profile{}, ErrConflict
		}
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}

	if _, err = tx.Exec(ctx, `
        INSERT INTO profile_members (profile_id, user_id, role) VALUES ($1, $2, $3)
    `, profile.ID, params.OwnerUserID, MemberRoleOwner); err != nil {
		return Profile{}, fmt.Errorf("insert profile owner: %w", err)
	}

	for _, field := range params.SeedFields {
		if _, err = tx.Exec(ctx, `
            INSERT INTO form_fields (id, profile_id, label, field_key, type, required, options, order_index)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `, field.ID, profile.ID, field.Label, field.Key, string(field.Type), field.Required, field.Options, field.OrderIndex); err != nil {
			return Profile{}, fmt.Errorf("seed form field %s: %w", field.Key, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return Profile{}, fmt.Errorf("commit profile tx: %w", err)
	}

	return profile, nil
}

// GetProfile returns a profile by id.
func (s *ProfileStore) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// GetProfileBySlug returns a profile by its public slug.
func (s *ProfileStore) GetProfileBySlug(ctx context.Context, slug string) (Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE slug = $1`, strings.ToLower(strings.TrimSpace(slug)))
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get profile by slug: %w", err)
	}
	return profile, nil
}

// ListProfilesForUser returns the profiles userID is a member of, newest first.
func (s *ProfileStore) ListProfilesForUser(ctx context.Context, userID string) ([]Profile, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+prefixColumns("p", profileColumns)+`
        FROM profiles p
        JOIN profile_members m ON m.profile_id = p.id
        WHERE m.user_id = $1
        ORDER BY p.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list member profiles: %w", err)
	}
	return collectProfiles(rows)
}

// ListProfiles returns every profile, optionally filtered by status, newest first.
func (s *ProfileStore) ListProfiles(ctx context.Context, status *string) ([]Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	var args []any
	if status != nil && *status != "" {
		args = append(args, *status)
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return collectProfiles(rows)
}

// IsMember reports whether userID belongs to the profile.
func (s *ProfileStore) IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM profile_members WHERE profile_id = $1 AND user_id = $2)
    `, profileID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check profile membership: %w", err)
	}
	return exists, nil
}

// UpdateProfileParams represents owner-editable setup fields. Nil members are untouched.
type UpdateProfileParams struct {
	DisplayName        *string
	Theme              *string
	AccentColor        *string
	HeroHeadline       *string
	HeroSubtext        *string
	WhatsAppNumber     *string
	NotificationEmails *[]string
}

// UpdateProfile applies the provided setup fields and returns the updated record.
func (s *ProfileStore) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateProfileParams) (Profile, error) {
	setParts := []string{}
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.DisplayName != nil {
		set("display_name", *params.DisplayName)
	}
	if params.Theme != nil {
		set("theme", *params.Theme)
	}
	if params.AccentColor != nil {
		set("accent_color", *params.AccentColor)
	}
	if params.HeroHeadline != nil {
		set("hero_headline", nullIfBlank(*params.HeroHeadline))
	}
	if params.HeroSubtext != nil {
		set("hero_subtext", nullIfBlank(*params.HeroSubtext))
	}
	if params.WhatsAppNumber != nil {
		set("whatsapp_number", nullIfBlank(*params.WhatsAppNumber))
	}
	if params.NotificationEmails != nil {
		emails := *params.NotificationEmails
		if emails == nil {
			emails = []string{}
		}
		set("notification_emails", emails)
	}

	if len(setParts) == 0 {
		return s.GetProfile(ctx, id)
	}

	args = append(args, id)
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE profiles
        SET %s, updated_at = NOW()
        WHERE id = $%d
        RETURNING %s
    `, strings.Join(setParts, ", "), len(args), profileColumns), args...)

	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// ApproveProfile activates the profile, records the approver and clears any rejection reason.
func (s *ProfileStore) ApproveProfile(ctx context.Context, id uuid.UUID, approvedBy string, at time.Time) (Profile, error) {
	row := s.pool.QueryRow(ctx, `
        UPDATE profiles
        SET status = $1, approved_at = $2, approved_by = $3, rejection_reason = NULL, updated_at = NOW()
        WHERE id = $4
        RETURNING `+profileColumns,
		ProfileStatusActive, at, approvedBy, id)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("approve profile: %w", err)
	}
	return profile, nil
}

// RejectProfile marks the profile rejected with an optional reason.
func (s *ProfileStore) RejectProfile(ctx context.Context, id uuid.UUID, reason *string) (Profile, error) {
	row := s.pool.QueryRow(ctx, `
        UPDATE profiles
        SET status = $1, rejection_reason = $2, updated_at = NOW()
        WHERE id = $3
        RETURNING `+profileColumns,
		ProfileStatusRejected, reason, id)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("reject profile: %w", err)
	}
	return profile, nil
}

func collectProfiles(rows pgx.Rows) ([]Profile, error) {
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func scanProfile(scanner rowScanner) (Profile, error) {
	var (
		p               Profile
		heroHeadline    pgtype.Text
		heroSubtext     pgtype.Text
		whatsApp        pgtype.Text
		approvedAt      pgtype.Timestamptz
		approvedBy      pgtype.Text
		rejectionReason pgtype.Text
	)

	if err := scanner.Scan(
		&p.ID, &p.Slug, &p.DisplayName, &p.Status, &p.Theme, &p.AccentColor, &heroHeadline, &heroSubtext,
		&whatsApp, &p.NotificationEmails, &p.OwnerUserID, &approvedAt, &approvedBy, &rejectionReason,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return Profile{}, err
	}

	p.HeroHeadline = textPtr(heroHeadline)
	p.HeroSubtext = textPtr(heroSubtext)
	p.WhatsAppNumber = textPtr(whatsApp)
	p.ApprovedAt = timePtr(approvedAt)
	p.ApprovedBy = textPtr(approvedBy)
	p.RejectionReason = textPtr(rejectionReason)
	if p.NotificationEmails == nil {
		p.NotificationEmails = []string{}
	}
	return p, nil
}

// prefixColumns qualifies a comma separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
