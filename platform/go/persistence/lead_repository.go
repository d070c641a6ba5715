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

// Lead statuses.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusBooked    = "booked"
)

// MaxLeadPage caps a single inbox read.
const MaxLeadPage = 100

const leadColumns = `id, profile_id, form_data, phone, email, status, contacted_at, booked_at, created_at`

// Lead represents a row in the leads table.
type Lead struct {
	ID          uuid.UUID
	ProfileID   uuid.UUID
	FormData    map[string]string
	Phone       *string
	Email       *string
	Status      string
	ContactedAt *time.Time
	BookedAt    *time.Time
	CreatedAt   time.Time
}

// LeadStore persists leads rows. Leads are never deleted.
type LeadStore struct {
	pool *pgxpool.Pool
}

// NewLeadStore returns a store bound to pool.
func NewLeadStore(ctx context.Context, pool *pgxpool.Pool) (*LeadStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &LeadStore{pool: pool}, nil
}

// CreateLeadParams captures an accepted submission.
type CreateLeadParams struct {
	LeadID    uuid.UUID
	ProfileID uuid.UUID
	FormData  map[string]string
	Phone     *string
	Email     *string
}

// CreateLead inserts a lead with status new.
func (s *LeadStore) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	if params.LeadID == uuid.Nil {
		return Lead{}, errors.New("lead id is required")
	}
	data := params.FormData
	if data == nil {
		data = map[string]string{}
	}

	row := s.pool.QueryRow(ctx, `
        INSERT INTO leads (id, profile_id, form_data, phone, email, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+leadColumns,
		params.LeadID, params.ProfileID, data, params.Phone, params.Email, LeadStatusNew,
	)
	lead, err := scanLead(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

// ListLeadsParams filters an inbox read.
type ListLeadsParams struct {
	ProfileID uuid.UUID
	Status    *string
	Limit     int
}

// ListLeads returns the newest leads first, capped at MaxLeadPage.
func (s *LeadStore) ListLeads(ctx context.Context, params ListLeadsParams) ([]Lead, error) {
	limit := params.Limit
	if limit <= 0 || limit > MaxLeadPage {
		limit = MaxLeadPage
	}

	args := []any{params.ProfileID}
	where := "profile_id = $1"
	if params.Status != nil && *params.Status != "" {
		args = append(args, *params.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM leads
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d
    `, leadColumns, where, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, scanErr := scanLead(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan lead: %w", scanErr)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// GetLead returns one lead scoped to its profile.
func (s *LeadStore) GetLead(ctx context.Context, profileID, id uuid.UUID) (Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND profile_id = $2`, id, profileID)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// UpdateLeadStatus sets the status and stamps the matching timestamp the first
// time the lead reaches it. Earlier stamps are never cleared.
func (s *LeadStore) UpdateLeadStatus(ctx context.Context, profileID, id uuid.UUID, status string, at time.Time) (Lead, error) {
	row := s.pool.QueryRow(ctx, `
        UPDATE leads
        SET status = $1::text,
            contacted_at = CASE WHEN $1::text = 'contacted' THEN COALESCE(contacted_at, $2) ELSE contacted_at END,
            booked_at = CASE WHEN $1::text = 'booked' THEN COALESCE(booked_at, $2) ELSE booked_at END
        WHERE id = $3 AND profile_id = $4
        RETURNING `+leadColumns,
		status, at, id, profileID,
	)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("update lead status: %w", err)
	}
	return lead, nil
}

func scanLead(scanner rowScanner) (Lead, error) {
	var (
		lead        Lead
		phone       pgtype.Text
		email       pgtype.Text
		contactedAt pgtype.Timestamptz
		bookedAt    pgtype.Timestamptz
	)
	if err := scanner.Scan(&lead.ID, &lead.ProfileID, &lead.FormData, &phone, &email, &lead.Status, &contactedAt, &bookedAt, &lead.CreatedAt); err != nil {
		return Lead{}, err
	}
	lead.Phone = textPtr(phone)
	lead.Email = textPtr(email)
	lead.ContactedAt = timePtr(contactedAt)
	lead.BookedAt = timePtr(bookedAt)
	if lead.FormData == nil {
		lead.FormData = map[string]string{}
	}
	return lead, nil
}
