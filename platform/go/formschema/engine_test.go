package formschema

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/booking-funnel/platform/go/ordering"
)

type memoryStore struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]Field
	listCalls int
	failNext  error
}

func newMemoryStore(fields ...Field) *memoryStore {
	s := &memoryStore{rows: make(map[uuid.UUID]Field)}
	for _, f := range fields {
		s.rows[f.ID] = f
	}
	return s
}

func (s *memoryStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func (s *memoryStore) ListFields(ctx context.Context, profileID uuid.UUID) ([]Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	out := make([]Field, 0, len(s.rows))
	for _, f := range s.rows {
		if f.ProfileID == profileID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *memoryStore) InsertField(ctx context.Context, field Field) (Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return Field{}, err
	}
	s.rows[field.ID] = field
	return field, nil
}

func (s *memoryStore) UpdateField(ctx context.Context, field Field) (Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return Field{}, err
	}
	s.rows[field.ID] = field
	return field, nil
}

func (s *memoryStore) UpdateFieldOrder(ctx context.Context, profileID, fieldID uuid.UUID, orderIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	f := s.rows[fieldID]
	f.OrderIndex = orderIndex
	s.rows[fieldID] = f
	return nil
}

func (s *memoryStore) DeleteField(ctx context.Context, profileID, fieldID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	delete(s.rows, fieldID)
	return nil
}

func seededEngine(t *testing.T) (*Engine, *memoryStore) {
	t.Helper()
	profileID := uuid.New()
	store := newMemoryStore(DefaultFields(profileID)...)
	engine, err := Load(context.Background(), store, profileID)
	require.NoError(t, err)
	return engine, store
}

func fieldByKey(t *testing.T, e *Engine, key string) Field {
	t.Helper()
	for _, f := range e.Fields() {
		if f.Key == key {
			return f
		}
	}
	t.Fatalf("field %q not found", key)
	return Field{}
}

func TestAddFieldToEmptySchema(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	engine, err := Load(context.Background(), store, uuid.New())
	require.NoError(t, err)

	field, err := engine.AddField(context.Background(), "Event Date", TypeDate, false, []string{"ignored"})
	require.NoError(t, err)
	require.Equal(t, "event_date", field.Key)
	require.Equal(t, 10, field.OrderIndex)
	require.Empty(t, field.Options)
	require.Contains(t, store.rows, field.ID)
}

func TestAddFieldUniquifiesKeys(t *testing.T) {
	t.Parallel()

	engine, err := Load(context.Background(), newMemoryStore(), uuid.New())
	require.NoError(t, err)

	first, err := engine.AddField(context.Background(), "foo", TypeText, false, nil)
	require.NoError(t, err)
	second, err := engine.AddField(context.Background(), "Foo", TypeSelect, true, []string{" a ", "", "b"})
	require.NoError(t, err)

	require.Equal(t, "foo", first.Key)
	require.Equal(t, "foo_2", second.Key)
	require.Equal(t, 20, second.OrderIndex)
	require.Equal(t, []string{"a", "b"}, second.Options)
}

func TestAddFieldBlankLabelIsRejected(t *testing.T) {
	t.Parallel()

	engine, store := seededEngine(t)
	_, err := engine.AddField(context.Background(), "   ", TypeText, false, nil)
	require.ErrorIs(t, err, ErrBlankLabel)
	require.Len(t, store.rows, 7)
}

func TestDeleteProtectedFieldFails(t *testing.T) {
	t.Parallel()

	engine, store := seededEngine(t)
	email := fieldByKey(t, engine, "email")

	err := engine.DeleteField(context.Background(), email.ID)
	require.ErrorIs(t, err, ErrProtectedField)
	require.Len(t, engine.Fields(), 7)
	require.Contains(t, store.rows, email.ID)
}

func TestDeleteFieldKeepsGaps(t *testing.T) {
	t.Parallel()

	engine, _ := seededEngine(t)
	location := fieldByKey(t, engine, "event_location")

	require.NoError(t, engine.DeleteField(context.Background(), location.ID))
	indices := make([]int, 0)
	for _, f := range engine.Fields() {
		indices = append(indices, f.OrderIndex)
	}
	require.Equal(t, []int{10, 20, 30, 40, 60, 70}, indices)
}

func TestUpdateFieldLocks(t *testing.T) {
	t.Parallel()

	engine, _ := seededEngine(t)
	ctx := context.Background()
	email := fieldByKey(t, engine, "email")
	phone := fieldByKey(t, engine, "phone")

	text := TypeText
	_, err := engine.UpdateField(ctx, email.ID, FieldPatch{Type: &text})
	require.ErrorIs(t, err, ErrLockedType)
	_, err = engine.UpdateField(ctx, phone.ID, FieldPatch{Type: &text})
	require.ErrorIs(t, err, ErrLockedType)

	required := true
	_, err = engine.UpdateField(ctx, email.ID, FieldPatch{Required: &required})
	require.ErrorIs(t, err, ErrLockedRequired)

	label := "Mobile"
	updated, err := engine.UpdateField(ctx, phone.ID, FieldPatch{Label: &label, Required: &required})
	require.NoError(t, err)
	require.Equal(t, "Mobile", updated.Label)
	require.Equal(t, "phone", updated.Key)
	require.True(t, updated.Required)
}

func TestUpdateFieldDropsOptionsWhenLeavingSelect(t *testing.T) {
	t.Parallel()

	engine, _ := seededEngine(t)
	budget := fieldByKey(t, engine, "budget_range")
	require.NotEmpty(t, budget.Options)

	text := TypeText
	updated, err := engine.UpdateField(context.Background(), budget.ID, FieldPatch{Type: &text})
	require.NoError(t, err)
	require.Empty(t, updated.Options)
}

func TestUpdateUnknownField(t *testing.T) {
	t.Parallel()

	engine, _ := seededEngine(t)
	label := "x"
	_, err := engine.UpdateField(context.Background(), uuid.New(), FieldPatch{Label: &label})
	require.ErrorIs(t, err, ErrFieldNotFound)
}

func TestMoveFieldRenumbers(t *testing.T) {
	t.Parallel()

	engine, store := seededEngine(t)
	email := fieldByKey(t, engine, "email")

	res, err := engine.MoveField(context.Background(), email.ID, ordering.Up)
	require.NoError(t, err)
	require.True(t, res.Changed)

	keys := Keys(engine.RenderSchema())
	require.Equal(t, []string{"full_name", "email", "phone", "event_date", "event_location", "budget_range", "message"}, keys)
	require.Equal(t, 20, store.rows[email.ID].OrderIndex)
}

func TestStoreFailureReloadsFromStore(t *testing.T) {
	t.Parallel()

	engine, store := seededEngine(t)
	before := store.listCalls
	store.failNext = errors.New("connection refused")

	_, err := engine.AddField(context.Background(), "Guests", TypeText, false, nil)
	require.Error(t, err)
	require.Equal(t, before+1, store.listCalls)
	require.Len(t, engine.Fields(), 7)
}

func TestMoveUnknownField(t *testing.T) {
	t.Parallel()

	engine, _ := seededEngine(t)
	_, err := engine.MoveField(context.Background(), uuid.New(), ordering.Down)
	require.ErrorIs(t, err, ErrFieldNotFound)
}
