package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
)

const testContract = `
openapi: 3.0.3
info: { title: test, version: "1" }
security:
  - bearerAuth: []
paths:
  /api/v1/things:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [label]
              properties:
                label: { type: string }
      responses:
        "201": { description: created }
components:
  securitySchemes:
    bearerAuth: { type: http, scheme: bearer }
`

func loadTestContract(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(testContract))
	require.NoError(t, err)
	require.NoError(t, doc.Validate(loader.Context))
	return doc
}

func TestOpenAPIValidator(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Use(OpenAPIValidator(loadTestContract(t)))
	r.Post("/api/v1/things", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	send := func(body, authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/things", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := send(`{"label":"ok"}`, "Bearer token")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = send(`{}`, "Bearer token")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var problem httpapi.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, http.StatusBadRequest, problem.Status)
	require.NotNil(t, problem.Detail)
	require.Equal(t, httpapi.ProblemTypeValidation, *problem.Type)

	rec = send(`{"label":"ok"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
