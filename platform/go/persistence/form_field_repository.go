package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
)

const formFieldColumns = `id, profile_id, label, field_key, type, required, options, order_index, created_at`

// FormFieldStore persists form_fields rows. It satisfies formschema.Store.
type FormFieldStore struct {
	pool *pgxpool.Pool
}

var _ formschema.Store = (*FormFieldStore)(nil)

// NewFormFieldStore returns a store bound to pool.
func NewFormFieldStore(ctx context.Context, pool *pgxpool.Pool) (*FormFieldStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &FormFieldStore{pool: pool}, nil
}

// ListFields returns the profile's fields by ascending order index.
func (s *FormFieldStore) ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+formFieldColumns+`
        FROM form_fields
        WHERE profile_id = $1
        ORDER BY order_index ASC, created_at ASC
    `, profileID)
	if err != nil {
		return nil, fmt.Errorf("list form fields: %w", err)
	}
	defer rows.Close()

	fields := make([]formschema.Field, 0)
	for rows.Next() {
		field, scanErr := scanFormField(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan form field: %w", scanErr)
		}
		fields = append(fields, field)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate form fields: %w", err)
	}
	return fields, nil
}

// InsertField stores a new field.
func (s *FormFieldStore) InsertField(ctx context.Context, field formschema.Field) (formschema.Field, error) {
	row := s.pool.QueryRow(ctx, `
        INSERT INTO form_fields (id, profile_id, label, field_key, type, required, options, order_index)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+formFieldColumns,
		field.ID, field.ProfileID, field.Label, field.Key, string(field.Type), field.Required, optionsOrEmpty(field.Options), field.OrderIndex,
	)
	stored, err := scanFormField(row)
	if err != nil {
		if isUniqueViolation(err) {
			return formschema.Field{}, ErrConflict
		}
		return formschema.Field{}, fmt.Errorf("insert form field: %w", err)
	}
	return stored, nil
}

// UpdateField rewrites the editable columns. The key and order are left alone.
func (s *FormFieldStore) UpdateField(ctx context.Context, field formschema.Field) (formschema.Field, error) {
	row := s.pool.QueryRow(ctx, `
        UPDATE form_fields
        SET label = $1, type = $2, required = $3, options = $4
        WHERE id = $5 AND profile_id = $6
        RETURNING `+formFieldColumns,
		field.Label, string(field.Type), field.Required, optionsOrEmpty(field.Options), field.ID, field.ProfileID,
	)
	stored, err := scanFormField(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return formschema.Field{}, ErrNotFound
		}
		return formschema.Field{}, fmt.Errorf("update form field: %w", err)
	}
	return stored, nil
}

// UpdateFieldOrder sets one row's order index.
func (s *FormFieldStore) UpdateFieldOrder(ctx context.Context, profileID, fieldID uuid.UUID, orderIndex int) error {
	return updateOrderIndex(ctx, s.pool, "form_fields", profileID, fieldID, orderIndex)
}

// DeleteField removes one row.
func (s *FormFieldStore) DeleteField(ctx context.Context, profileID, fieldID uuid.UUID) error {
	return deleteScoped(ctx, s.pool, "form_fields", profileID, fieldID)
}

func scanFormField(scanner rowScanner) (formschema.Field, error) {
	var (
		f       formschema.Field
		rawType string
	)
	if err := scanner.Scan(&f.ID, &f.ProfileID, &f.Label, &f.Key, &rawType, &f.Required, &f.Options, &f.OrderIndex, &f.CreatedAt); err != nil {
		return formschema.Field{}, err
	}
	f.Type = formschema.FieldType(rawType)
	f.Options = optionsOrEmpty(f.Options)
	return f, nil
}

func optionsOrEmpty(options []string) []string {
	if options == nil {
		return []string{}
	}
	return options
}
