package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPathUUID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	var got uuid.UUID
	var bindErr error

	r := chi.NewRouter()
	r.Get("/profiles/{profileId}", func(w http.ResponseWriter, req *http.Request) {
		got, bindErr = PathUUID(req, "profileId")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/profiles/"+id.String(), nil))
	require.NoError(t, bindErr)
	require.Equal(t, id, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/profiles/not-a-uuid", nil))
	require.Error(t, bindErr)
}

func TestQueryString(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/leads?status=booked&blank=%20", nil)

	status, err := QueryString(req, "status")
	require.NoError(t, err)
	require.Equal(t, "booked", *status)

	blank, err := QueryString(req, "blank")
	require.NoError(t, err)
	require.Nil(t, blank)

	missing, err := QueryString(req, "missing")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var dst struct {
		Label string `json:"label"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"label":"Guests"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	require.Equal(t, "Guests", dst.Label)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"label":"x","other":1}`))
	require.ErrorIs(t, DecodeJSON(req, &dst), ErrInvalidBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	require.ErrorIs(t, DecodeJSON(req, &dst), ErrInvalidBody)
}

func TestWriteProblem(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteProblem(rec, NewProblem("Validation failed", "bad", ProblemTypeValidation, http.StatusBadRequest, map[string][]string{"label": {"label is required"}}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Validation failed", body.Title)
	require.Equal(t, []string{"label is required"}, (*body.Errors)["label"])
}
