package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/booking-funnel/domains/reviews/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

type mockService struct {
	listFn    func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) ([]service.Review, error)
	addTextFn func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.TextInput) (service.Review, error)
	uploadFn  func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.ScreenshotInput) (service.Review, error)
	deleteFn  func(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID) error
	moveFn    func(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID, direction string) ([]service.Review, error)
}

func (m *mockService) List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) ([]service.Review, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, audit, profileID)
}

func (m *mockService) AddText(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.TextInput) (service.Review, error) {
	if m.addTextFn == nil {
		panic("addTextFn not configured")
	}
	return m.addTextFn(ctx, audit, profileID, input)
}

func (m *mockService) UploadScreenshot(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.ScreenshotInput) (service.Review, error) {
	if m.uploadFn == nil {
		panic("uploadFn not configured")
	}
	return m.uploadFn(ctx, audit, profileID, input)
}

func (m *mockService) Delete(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, audit, profileID, reviewID)
}

func (m *mockService) Move(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID, direction string) ([]service.Review, error) {
	if m.moveFn == nil {
		panic("moveFn not configured")
	}
	return m.moveFn(ctx, audit, profileID, reviewID, direction)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()
	h := New(svc, zaptest.NewLogger(t))
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		h.Routes(r)
		h.UploadRoutes(r)
	})
	return r
}

func TestAddTextReview(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		addTextFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.TextInput) (service.Review, error) {
			require.Equal(t, 4, *input.Rating)
			require.Equal(t, "Amazing", *input.Quote)
			rating := 4
			return service.Review{ID: uuid.New(), Kind: service.KindText, Rating: &rating, Quote: input.Quote, OrderIndex: 10}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/profiles/"+uuid.NewString()+"/reviews", strings.NewReader(`{"rating":4,"quote":"Amazing"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body reviewBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "text", body.Kind)
	require.Equal(t, 4, *body.Rating)
	require.Nil(t, body.ImageURL)
}

func TestAddTextReviewValidation(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		addTextFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, input service.TextInput) (service.Review, error) {
			return service.Review{}, &service.ValidationError{Fields: service.FieldErrors{"quote": {"quote is required"}}}
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/profiles/"+uuid.NewString()+"/reviews", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "quote is required")
}

func TestListReviewsForbidden(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		listFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) ([]service.Review, error) {
			return nil, service.ErrForbidden
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles/"+uuid.NewString()+"/reviews", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMoveReviewBadDirection(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		moveFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID, reviewID uuid.UUID, direction string) ([]service.Review, error) {
			return nil, &service.ValidationError{Fields: service.FieldErrors{"direction": {"invalid"}}}
		},
	}

	rec := httptest.NewRecorder()
	path := "/api/v1/profiles/" + uuid.NewString() + "/reviews/" + uuid.NewString() + "/move"
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"direction":"left"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
