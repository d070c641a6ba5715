package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

type mockRepository struct {
	mu         sync.Mutex
	rows       map[uuid.UUID]formschema.Field
	orderCalls int
	isMemberFn func(ctx context.Context, profileID uuid.UUID, userID string) (bool, error)
}

func newMockRepository(fields ...formschema.Field) *mockRepository {
	m := &mockRepository{rows: make(map[uuid.UUID]formschema.Field)}
	for _, f := range fields {
		m.rows[f.ID] = f
	}
	return m
}

func (m *mockRepository) ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]formschema.Field, 0, len(m.rows))
	for _, f := range m.rows {
		if f.ProfileID == profileID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (m *mockRepository) InsertField(ctx context.Context, field formschema.Field) (formschema.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[field.ID] = field
	return field, nil
}

func (m *mockRepository) UpdateField(ctx context.Context, field formschema.Field) (formschema.Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[field.ID] = field
	return field, nil
}

func (m *mockRepository) UpdateFieldOrder(ctx context.Context, profileID, fieldID uuid.UUID, orderIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderCalls++
	f := m.rows[fieldID]
	f.OrderIndex = orderIndex
	m.rows[fieldID] = f
	return nil
}

func (m *mockRepository) DeleteField(ctx context.Context, profileID, fieldID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, fieldID)
	return nil
}

func (m *mockRepository) IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error) {
	if m.isMemberFn == nil {
		return true, nil
	}
	return m.isMemberFn(ctx, profileID, userID)
}

type recordingPages struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (p *recordingPages) InvalidateProfile(ctx context.Context, profileID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, profileID)
}

func (p *recordingPages) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ids)
}

func member() requesttrace.AuditInfo {
	id := "user-1"
	return requesttrace.AuditInfo{ActorKind: requesttrace.ActorKindUser, UserID: &id, RequestID: "req-1"}
}

func TestListReturnsFallbackWhenEmpty(t *testing.T) {
	t.Parallel()

	svc := New(newMockRepository(), nil)

	schema, err := svc.List(context.Background(), member(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, schema.Fields)
	require.Equal(t, formschema.FallbackDescriptors(), schema.Rendered)
}

func TestListRequiresMembership(t *testing.T) {
	t.Parallel()

	repo := newMockRepository()
	repo.isMemberFn = func(ctx context.Context, profileID uuid.UUID, userID string) (bool, error) {
		return false, nil
	}
	svc := New(repo, nil)

	_, err := svc.List(context.Background(), member(), uuid.New())
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.List(context.Background(), requesttrace.Anonymous("req"), uuid.New())
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAddAppendsAndInvalidates(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	repo := newMockRepository(formschema.DefaultFields(profileID)...)
	pages := &recordingPages{}
	svc := New(repo, pages)

	field, err := svc.Add(context.Background(), member(), profileID, AddInput{
		Label:   "Guest count",
		Type:    "select",
		Options: "50, 100, ,200",
	})
	require.NoError(t, err)
	require.NotNil(t, field)
	require.Equal(t, "guest_count", field.Key)
	require.Equal(t, 80, field.OrderIndex)
	require.Equal(t, []string{"50", "100", "200"}, field.Options)
	require.Equal(t, 1, pages.count())
}

func TestAddBlankLabelIsNoop(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	repo := newMockRepository(formschema.DefaultFields(profileID)...)
	pages := &recordingPages{}
	svc := New(repo, pages)

	field, err := svc.Add(context.Background(), member(), profileID, AddInput{Label: "   ", Type: "text"})
	require.NoError(t, err)
	require.Nil(t, field)
	require.Len(t, repo.rows, 7)
	require.Zero(t, pages.count())
}

func TestAddRejectsUnknownType(t *testing.T) {
	t.Parallel()

	svc := New(newMockRepository(), nil)

	_, err := svc.Add(context.Background(), member(), uuid.New(), AddInput{Label: "Color", Type: "colour"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "type")
}

func TestUpdateLockedFields(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	defaults := formschema.DefaultFields(profileID)
	repo := newMockRepository(defaults...)
	svc := New(repo, nil)

	var emailID, nameID uuid.UUID
	for _, f := range defaults {
		switch f.Key {
		case "email":
			emailID = f.ID
		case "full_name":
			nameID = f.ID
		}
	}

	required := true
	_, err := svc.Update(context.Background(), member(), profileID, emailID, UpdateInput{Required: &required})
	require.ErrorIs(t, err, ErrLocked)

	label := "Your name"
	updated, err := svc.Update(context.Background(), member(), profileID, nameID, UpdateInput{Label: &label})
	require.NoError(t, err)
	require.Equal(t, "Your name", updated.Label)
	require.Equal(t, "full_name", updated.Key)

	_, err = svc.Update(context.Background(), member(), profileID, uuid.New(), UpdateInput{Label: &label})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProtectedField(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	defaults := formschema.DefaultFields(profileID)
	repo := newMockRepository(defaults...)
	pages := &recordingPages{}
	svc := New(repo, pages)

	for _, f := range defaults {
		if f.Key == "phone" {
			require.ErrorIs(t, svc.Delete(context.Background(), member(), profileID, f.ID), ErrLocked)
		}
		if f.Key == "message" {
			require.NoError(t, svc.Delete(context.Background(), member(), profileID, f.ID))
		}
	}
	require.Len(t, repo.rows, 6)
	require.Equal(t, 1, pages.count())
}

func TestMoveRenumbersWholeList(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	defaults := formschema.DefaultFields(profileID)
	repo := newMockRepository(defaults...)
	svc := New(repo, nil)

	fields, err := svc.Move(context.Background(), member(), profileID, defaults[2].ID, "up")
	require.NoError(t, err)
	require.Equal(t, defaults[2].ID, fields[1].ID)
	require.Equal(t, defaults[1].ID, fields[2].ID)
	for i, f := range fields {
		require.Equal(t, (i+1)*10, f.OrderIndex)
	}
	require.Equal(t, len(defaults), repo.orderCalls)

	fields, err = svc.Move(context.Background(), member(), profileID, defaults[0].ID, "up")
	require.NoError(t, err)
	require.Equal(t, defaults[0].ID, fields[0].ID)
	require.Equal(t, len(defaults), repo.orderCalls)
}

func TestMoveValidation(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	svc := New(newMockRepository(formschema.DefaultFields(profileID)...), nil)

	_, err := svc.Move(context.Background(), member(), profileID, uuid.New(), "sideways")
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	_, err = svc.Move(context.Background(), member(), profileID, uuid.New(), "down")
	require.ErrorIs(t, err, ErrNotFound)
}
