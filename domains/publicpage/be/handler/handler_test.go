package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/booking-funnel/domains/publicpage/be/service"
)

type mockService struct {
	getFn      func(ctx context.Context, slug string) (service.Page, error)
	whatsappFn func(ctx context.Context, slug string) (string, error)
}

func (m *mockService) Get(ctx context.Context, slug string) (service.Page, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, slug)
}

func (m *mockService) WhatsAppURL(ctx context.Context, slug string) (string, error) {
	if m.whatsappFn == nil {
		panic("whatsappFn not configured")
	}
	return m.whatsappFn(ctx, slug)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api/v1/public", New(svc, zaptest.NewLogger(t)).Routes)
	return r
}

func TestGetPage(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		getFn: func(ctx context.Context, slug string) (service.Page, error) {
			require.Equal(t, "dj-nova", slug)
			return service.Page{Slug: slug, DisplayName: "DJ Nova", Gallery: []service.GalleryItem{}, Reviews: []service.Review{}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/pages/dj-nova", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "DJ Nova", body["displayName"])
	require.Equal(t, []any{}, body["gallery"])
}

func TestGetPageNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		getFn: func(ctx context.Context, slug string) (service.Page, error) { return service.Page{}, service.ErrNotFound },
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/pages/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestGetPageInternalError(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		getFn: func(ctx context.Context, slug string) (service.Page, error) { return service.Page{}, errors.New("boom") },
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/pages/dj-nova", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWhatsAppRedirect(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		whatsappFn: func(ctx context.Context, slug string) (string, error) {
			require.Equal(t, "dj-nova", slug)
			return "https://wa.me/1?text=hi", nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/whatsapp?slug=dj-nova", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://wa.me/1?text=hi", rec.Header().Get("Location"))
}

func TestWhatsAppRequiresSlug(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/whatsapp", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
