package formschema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/ordering"
)

// ErrLockedRequired is returned when a patch changes the required flag of a field that pins it.
var ErrLockedRequired = errors.New("field required flag is locked")

// Store persists one profile's form fields. Every call is scoped by profile.
type Store interface {
	ListFields(ctx context.Context, profileID uuid.UUID) ([]Field, error)
	InsertField(ctx context.Context, field Field) (Field, error)
	UpdateField(ctx context.Context, field Field) (Field, error)
	UpdateFieldOrder(ctx context.Context, profileID, fieldID uuid.UUID, orderIndex int) error
	DeleteField(ctx context.Context, profileID, fieldID uuid.UUID) error
}

// FieldPatch is a partial update. Nil members are left untouched.
type FieldPatch struct {
	Label    *string
	Type     *FieldType
	Required *bool
	Options  *[]string
}

// Engine owns the ordered field list of one profile. Mutations are serialized;
// when a store call fails the engine reloads from the store before returning.
type Engine struct {
	mu        sync.Mutex
	profileID uuid.UUID
	store     Store
	fields    *ordering.Collection[Field]
	now       func() time.Time
}

// Load reads the profile's fields and returns an engine over them.
func Load(ctx context.Context, store Store, profileID uuid.UUID) (*Engine, error) {
	if store == nil {
		return nil, errors.New("form field store is required")
	}
	rows, err := store.ListFields(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load form fields: %w", err)
	}
	return &Engine{
		profileID: profileID,
		store:     store,
		fields:    ordering.NewCollection[Field](profileID, orderingStore{store: store, profileID: profileID}, rows),
		now:       time.Now,
	}, nil
}

// ProfileID returns the owning profile.
func (e *Engine) ProfileID() uuid.UUID { return e.profileID }

// Fields returns the persisted fields in display order.
func (e *Engine) Fields() []Field { return e.fields.Items() }

// RenderSchema returns the descriptors a public form renders.
func (e *Engine) RenderSchema() []Descriptor { return Render(e.fields.Items()) }

// Labels maps field keys to labels for the rendered schema.
func (e *Engine) Labels() map[string]string { return Labels(e.RenderSchema()) }

// Reload replaces local state with what the store holds.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reload(ctx)
}

func (e *Engine) reload(ctx context.Context) error {
	rows, err := e.store.ListFields(ctx, e.profileID)
	if err != nil {
		return fmt.Errorf("reload form fields: %w", err)
	}
	e.fields.Reset(rows)
	return nil
}

// AddField appends a field with a key derived from label. A blank label returns
// ErrBlankLabel and changes nothing.
func (e *Engine) AddField(ctx context.Context, label string, fieldType FieldType, required bool, options []string) (Field, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Field{}, ErrBlankLabel
	}
	if !fieldType.Valid() {
		return Field{}, fmt.Errorf("%w: %q", ErrInvalidType, fieldType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	used := make(map[string]struct{})
	for _, f := range e.fields.Items() {
		used[f.Key] = struct{}{}
	}

	field := Field{
		ID:        uuid.New(),
		ProfileID: e.profileID,
		Label:     label,
		Key:       UniqueKey(label, used),
		Type:      fieldType,
		Required:  required,
		Options:   normalizeOptions(fieldType, options),
		CreatedAt: e.now().UTC(),
	}

	stored, _, err := e.fields.Append(ctx, field)
	if err != nil {
		return Field{}, e.failed(ctx, err)
	}
	return stored, nil
}

// UpdateField applies patch to the field. The key never changes.
func (e *Engine) UpdateField(ctx context.Context, id uuid.UUID, patch FieldPatch) (Field, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.fields.Find(id)
	if !ok {
		return Field{}, ErrFieldNotFound
	}

	next := current
	if patch.Label != nil {
		label := strings.TrimSpace(*patch.Label)
		if label == "" {
			return Field{}, ErrBlankLabel
		}
		next.Label = label
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return Field{}, fmt.Errorf("%w: %q", ErrInvalidType, *patch.Type)
		}
		if locked, ok := LockedType(current.Key); ok && *patch.Type != locked {
			return Field{}, fmt.Errorf("%w: %s must stay %s", ErrLockedType, current.Key, locked)
		}
		next.Type = *patch.Type
	}
	if patch.Required != nil {
		if current.Key == "email" && *patch.Required != current.Required {
			return Field{}, fmt.Errorf("%w: %s", ErrLockedRequired, current.Key)
		}
		next.Required = *patch.Required
	}
	options := next.Options
	if patch.Options != nil {
		options = *patch.Options
	}
	next.Options = normalizeOptions(next.Type, options)

	stored, err := e.store.UpdateField(ctx, next)
	if err != nil {
		return Field{}, e.failed(ctx, fmt.Errorf("update field: %w", err))
	}
	e.fields.Replace(stored)
	return stored, nil
}

// DeleteField removes a non-protected field. Remaining fields keep their indices.
func (e *Engine) DeleteField(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.fields.Find(id)
	if !ok {
		return ErrFieldNotFound
	}
	if current.Protected() {
		return fmt.Errorf("%w: %s", ErrProtectedField, current.Key)
	}

	if _, err := e.fields.Remove(ctx, id); err != nil {
		return e.failed(ctx, err)
	}
	return nil
}

// MoveField shifts a field one slot and renumbers the list.
func (e *Engine) MoveField(ctx context.Context, id uuid.UUID, dir ordering.Direction) (ordering.Result[Field], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.fields.Move(ctx, id, dir)
	if errors.Is(err, ordering.ErrItemNotFound) {
		return res, ErrFieldNotFound
	}
	if err != nil {
		return res, e.failed(ctx, err)
	}
	return res, nil
}

// failed reloads after a store error and returns the original error, joined
// with the reload error when that fails too.
func (e *Engine) failed(ctx context.Context, cause error) error {
	if err := e.reload(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

type orderingStore struct {
	store     Store
	profileID uuid.UUID
}

func (s orderingStore) Insert(ctx context.Context, field Field) (Field, error) {
	return s.store.InsertField(ctx, field)
}

func (s orderingStore) UpdateSortIndex(ctx context.Context, id uuid.UUID, index int) error {
	return s.store.UpdateFieldOrder(ctx, s.profileID, id, index)
}

func (s orderingStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteField(ctx, s.profileID, id)
}
