package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	platformauth "github.com/zenGate-Global/booking-funnel/platform/go/auth"
	"github.com/zenGate-Global/booking-funnel/platform/go/auth/devtoken"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

type roleCheckerFunc func(ctx context.Context, userID, role string) (bool, error)

func (f roleCheckerFunc) HasRole(ctx context.Context, userID, role string) (bool, error) {
	return f(ctx, userID, role)
}

func devBearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := devtoken.Build(devtoken.Params{UserID: userID, Email: userID + "@example.com"}, time.Now())
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRequestTraceWithAuth(t *testing.T) {
	roles := roleCheckerFunc(func(ctx context.Context, userID, role string) (bool, error) {
		return userID == "admin-1" && role == PlatformAdminRole, nil
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(platformauth.JWT(platformauth.UnsignedTokenVerifier(), nil))
	r.Use(RequestTrace(roles))

	var got requesttrace.AuditInfo
	r.Get("/test", func(w http.ResponseWriter, req *http.Request) {
		var ok bool
		got, ok = requesttrace.FromContext(req.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", devBearer(t, "admin-1"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, requesttrace.ActorKindUser, got.ActorKind)
	require.True(t, got.PlatformAdmin)
	require.NotEmpty(t, got.RequestID)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", devBearer(t, "owner-1"))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.False(t, got.PlatformAdmin)
}

func TestRequestTraceAnonymous(t *testing.T) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestTrace(nil))

	r.Get("/test", func(w http.ResponseWriter, req *http.Request) {
		audit, ok := requesttrace.FromContext(req.Context())
		require.True(t, ok)
		require.Equal(t, requesttrace.ActorKindAnonymous, audit.ActorKind)
		require.Nil(t, audit.UserID)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestRequestTraceRoleLookupFailure(t *testing.T) {
	roles := roleCheckerFunc(func(ctx context.Context, userID, role string) (bool, error) {
		return false, errors.New("db down")
	})

	r := chi.NewRouter()
	r.Use(platformauth.JWT(platformauth.UnsignedTokenVerifier(), nil))
	r.Use(RequestTrace(roles))
	r.Get("/test", func(w http.ResponseWriter, req *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", devBearer(t, "owner-1"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
