package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/booking-funnel/domains/leads/be/repo"
	"github.com/zenGate-Global/booking-funnel/domains/leads/be/service"
	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
	"github.com/zenGate-Global/booking-funnel/platform/go/persistence"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

type mockService struct {
	submitFn  func(ctx context.Context, audit requesttrace.AuditInfo, values url.Values) (service.SubmitResult, error)
	listFn    func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, status *string) ([]service.Lead, error)
	getFn     func(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (service.Lead, error)
	statusFn  func(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID, status string) (service.Lead, error)
	contactFn func(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (service.ContactLinks, error)
	exportFn  func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, format string, status *string) (service.Export, error)
}

func (m *mockService) Submit(ctx context.Context, audit requesttrace.AuditInfo, values url.Values) (service.SubmitResult, error) {
	if m.submitFn == nil {
		panic("submitFn not configured")
	}
	return m.submitFn(ctx, audit, values)
}

func (m *mockService) List(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, status *string) ([]service.Lead, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, audit, profileID, status)
}

func (m *mockService) Get(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (service.Lead, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, audit, profileID, leadID)
}

func (m *mockService) UpdateStatus(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID, status string) (service.Lead, error) {
	if m.statusFn == nil {
		panic("statusFn not configured")
	}
	return m.statusFn(ctx, audit, profileID, leadID, status)
}

func (m *mockService) ContactLinks(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (service.ContactLinks, error) {
	if m.contactFn == nil {
		panic("contactFn not configured")
	}
	return m.contactFn(ctx, audit, profileID, leadID)
}

func (m *mockService) Export(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, format string, status *string) (service.Export, error) {
	if m.exportFn == nil {
		panic("exportFn not configured")
	}
	return m.exportFn(ctx, audit, profileID, format, status)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()
	h := New(svc, zaptest.NewLogger(t), "https://pages.example.com/")
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		h.Routes(r)
		r.Route("/public", func(r chi.Router) { h.PublicRoutes(r) })
	})
	return r
}

func leadsPath(profileID uuid.UUID, suffix string) string {
	return fmt.Sprintf("/api/v1/profiles/%s%s", profileID, suffix)
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/leads", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSubmitRedirectsToThankYou(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		submitFn: func(ctx context.Context, audit requesttrace.AuditInfo, values url.Values) (service.SubmitResult, error) {
			require.Equal(t, requesttrace.ActorKindAnonymous, audit.ActorKind)
			require.Equal(t, "dj-nova", values.Get("profile_slug"))
			require.Equal(t, "Ana", values.Get("full_name"))
			return service.SubmitResult{Slug: "dj-nova", Accepted: true, LeadID: uuid.New()}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, postForm(url.Values{"profile_slug": {"dj-nova"}, "full_name": {"Ana"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "https://pages.example.com/thank-you?slug=dj-nova", rec.Header().Get("Location"))
}

// intakeRepository serves the public intake path only.
type intakeRepository struct {
	repo.Repository
	profile persistence.Profile
	created []persistence.CreateLeadParams
}

func (r *intakeRepository) GetProfileBySlug(ctx context.Context, slug string) (persistence.Profile, error) {
	return r.profile, nil
}

func (r *intakeRepository) ListFields(ctx context.Context, profileID uuid.UUID) ([]formschema.Field, error) {
	return formschema.DefaultFields(profileID), nil
}

func (r *intakeRepository) Create(ctx context.Context, params persistence.CreateLeadParams) (persistence.Lead, error) {
	r.created = append(r.created, params)
	return persistence.Lead{ID: params.LeadID, ProfileID: params.ProfileID}, nil
}

func TestSubmitStoresUnvalidatedValuesAndRedirects(t *testing.T) {
	t.Parallel()

	store := &intakeRepository{profile: persistence.Profile{
		ID:     uuid.New(),
		Slug:   "dj-nova",
		Status: persistence.ProfileStatusActive,
	}}

	rec := httptest.NewRecorder()
	newRouter(t, service.New(store, nil)).ServeHTTP(rec, postForm(url.Values{
		"profile_slug": {"dj-nova"},
		"full_name":    {"Ann"},
		"email":        {"ann at example"},
		"event_date":   {"12/24/2026"},
		"budget_range": {"Whatever works"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "https://pages.example.com/thank-you?slug=dj-nova", rec.Header().Get("Location"))
	require.Len(t, store.created, 1)
	require.Equal(t, "ann at example", store.created[0].FormData["email"])
}

func TestSubmitIgnoredRedirectsHome(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		submitFn: func(ctx context.Context, audit requesttrace.AuditInfo, values url.Values) (service.SubmitResult, error) {
			return service.SubmitResult{Slug: "gone"}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, postForm(url.Values{"profile_slug": {"gone"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "https://pages.example.com/", rec.Header().Get("Location"))
}

func TestSubmitValidationProblem(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		submitFn: func(ctx context.Context, audit requesttrace.AuditInfo, values url.Values) (service.SubmitResult, error) {
			return service.SubmitResult{}, &service.ValidationError{Fields: service.FieldErrors{"full_name": {"is required"}}}
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, postForm(url.Values{"profile_slug": {"dj-nova"}}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Contains(t, problem["errors"], "full_name")
}

func TestListPassesStatusFilter(t *testing.T) {
	t.Parallel()

	profileID := uuid.New()
	svc := &mockService{
		listFn: func(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, status *string) ([]service.Lead, error) {
			require.Equal(t, profileID, id)
			require.NotNil(t, status)
			require.Equal(t, "new", *status)
			return []service.Lead{{
				ID:       uuid.New(),
				Status:   "new",
				FormData: formschema.FormData{"full_name": "Ana"},
				Values:   []formschema.LabelledValue{{Key: "full_name", Label: "Full name", Value: "Ana"}},
			}}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, leadsPath(profileID, "/leads?status=new"), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body leadListBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, "Full name", body.Items[0].Values[0].Label)
}

func TestUpdateStatusForbidden(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		statusFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID, status string) (service.Lead, error) {
			require.Equal(t, "contacted", status)
			return service.Lead{}, service.ErrForbidden
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, leadsPath(uuid.New(), "/leads/"+uuid.NewString()+"/status"), strings.NewReader(`{"status":"contacted"}`))
	newRouter(t, svc).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestContactLinks(t *testing.T) {
	t.Parallel()

	wa := "https://wa.me/14155552671?text=hi"
	svc := &mockService{
		contactFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID, leadID uuid.UUID) (service.ContactLinks, error) {
			return service.ContactLinks{WhatsApp: &wa}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, leadsPath(uuid.New(), "/leads/"+uuid.NewString()+"/contact"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"whatsapp":"https://wa.me/14155552671?text=hi"}`, rec.Body.String())
}

func TestExportWritesAttachment(t *testing.T) {
	t.Parallel()

	svc := &mockService{
		exportFn: func(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID, format string, status *string) (service.Export, error) {
			require.Equal(t, "csv", format)
			require.Nil(t, status)
			return service.Export{Filename: "leads-2026-01-01.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("id\n")}, nil
		},
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, leadsPath(uuid.New(), "/leads-export"), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename=leads-2026-01-01.csv`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, "id\n", rec.Body.String())
}

func TestGetBadLeadID(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, leadsPath(uuid.New(), "/leads/nope"), nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
