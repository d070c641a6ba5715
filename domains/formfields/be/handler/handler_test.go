package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/booking-funnel/domains/formfields/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

type mockService struct {
	listFn   func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) (service.Schema, error)
	addFn    func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.AddInput) (*formschema.Field, error)
	updateFn func(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, input service.UpdateInput) (formschema.Field, error)
	deleteFn func(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID) error
	moveFn   func(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, direction string) ([]formschema.Field, error)
}

func (m *mockService) List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) (service.Schema, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, audit, profileID)
}

func (m *mockService) Add(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.AddInput) (*formschema.Field, error) {
	if m.addFn == nil {
		panic("addFn not configured")
	}
	return m.addFn(ctx, audit, profileID, input)
}

func (m *mockService) Update(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, input service.UpdateInput) (formschema.Field, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, audit, profileID, fieldID, input)
}

func (m *mockService) Delete(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, audit, profileID, fieldID)
}

func (m *mockService) Move(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, direction string) ([]formschema.Field, error) {
	if m.moveFn == nil {
		panic("moveFn not configured")
	}
	return m.moveFn(ctx, audit, profileID, fieldID, direction)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api/v1", New(svc, zaptest.NewLogger(t)).Routes)
	return r
}

func fieldsPath(profileID uuid.UUID, suffix string) string {
	return fmt.Sprintf("/api/v1/profiles/%s/form-fields%s", profileID, suffix)
}

func TestListReturnsItemsAndRendered(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	fields := formschema.DefaultFields(profileID)
	svc := &mockService{
		listFn: func(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (service.Schema, error) {
			require.Equal(t, profileID, id)
			return service.Schema{Fields: fields, Rendered: formschema.Render(fields)}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fieldsPath(profileID, ""), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body schemaBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 7)
	require.Len(t, body.Rendered, 7)
	require.Equal(t, "full_name", body.Items[0].Key)
	require.True(t, body.Items[1].Protected)
}

func TestAddBlankLabelReturnsNoContent(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		addFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.AddInput) (*formschema.Field, error) {
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fieldsPath(uuid.New(), ""), strings.NewReader(`{"label":" ","type":"text"}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.Bytes())
}

func TestAddCreatesField(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		addFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.AddInput) (*formschema.Field, error) {
			require.Equal(t, "a, b", input.Options)
			return &formschema.Field{ID: uuid.New(), Key: "guests", Label: input.Label, Type: formschema.TypeSelect, Options: []string{"a", "b"}, OrderIndex: 80}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fieldsPath(uuid.New(), ""), strings.NewReader(`{"label":"Guests","type":"select","options":"a, b"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body fieldBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 80, body.OrderIndex)
	require.False(t, body.Protected)
}

func TestDeleteLockedFieldConflict(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		deleteFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID) error {
			return fmt.Errorf("%w: %v", service.ErrLocked, formschema.ErrProtectedField)
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fieldsPath(uuid.New(), "/"+uuid.NewString()), nil))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestMovePassesDirection(t *testing.T) {
	t.Parallel()

	fieldID := uuid.New()
	svc := &mockService{
		moveFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID, id uuid.UUID, direction string) ([]formschema.Field, error) {
			require.Equal(t, fieldID, id)
			require.Equal(t, "down", direction)
			return []formschema.Field{{ID: id, Key: "x", OrderIndex: 10}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, fieldsPath(uuid.New(), "/"+fieldID.String()+"/move"), strings.NewReader(`{"direction":"down"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body fieldListBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, []string{}, body.Items[0].Options)
}

func TestUpdateNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		updateFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID, fieldID uuid.UUID, input service.UpdateInput) (formschema.Field, error) {
			require.Equal(t, "New", *input.Label)
			return formschema.Field{}, service.ErrNotFound
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, fieldsPath(uuid.New(), "/"+uuid.NewString()), strings.NewReader(`{"label":"New"}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadFieldID(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fieldsPath(uuid.New(), "/abc"), nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
