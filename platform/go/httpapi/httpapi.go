// Package httpapi holds the wire helpers shared by domain handlers: RFC 7807
// problem bodies, JSON encoding and typed path/query parameter binding.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// Problem type URIs shared across domains.
const (
	ProblemTypeValidation   = "https://booking-funnel.dev/problems/validation-error"
	ProblemTypeUnauthorized = "https://booking-funnel.dev/problems/unauthorized"
	ProblemTypeForbidden    = "https://booking-funnel.dev/problems/forbidden"
	ProblemTypeNotFound     = "https://booking-funnel.dev/problems/not-found"
	ProblemTypeConflict     = "https://booking-funnel.dev/problems/conflict"
	ProblemTypeRateLimited  = "https://booking-funnel.dev/problems/rate-limited"
	ProblemTypeInternal     = "https://booking-funnel.dev/problems/internal-error"
)

// MaxJSONBody bounds request bodies decoded by DecodeJSON.
const MaxJSONBody = 1 << 20

// ProblemDetails is an application/problem+json body.
type ProblemDetails struct {
	Type     *string              `json:"type,omitempty"`
	Title    string               `json:"title"`
	Status   int                  `json:"status"`
	Detail   *string              `json:"detail,omitempty"`
	Instance *string              `json:"instance,omitempty"`
	Errors   *map[string][]string `json:"errors,omitempty"`
}

// NewProblem builds a problem body; empty detail and type are omitted.
func NewProblem(title, detail, problemType string, status int, fieldErrors map[string][]string) ProblemDetails {
	problem := ProblemDetails{
		Title:  title,
		Status: status,
	}

	if detail != "" {
		problem.Detail = &detail
	}
	if problemType != "" {
		problem.Type = &problemType
	}

	if len(fieldErrors) > 0 {
		copied := make(map[string][]string, len(fieldErrors))
		for field, messages := range fieldErrors {
			copied[field] = append([]string(nil), messages...)
		}
		problem.Errors = &copied
	}

	return problem
}

// WriteJSON writes body as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteProblem writes an application/problem+json response.
func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// ErrInvalidBody wraps JSON decoding failures.
var ErrInvalidBody = errors.New("invalid request body")

// DecodeJSON decodes a bounded JSON body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", ErrInvalidBody)
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", ErrInvalidBody)
		}
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	return nil
}

// PathUUID binds a required uuid path parameter the way generated chi servers do.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return id, nil
}

// QueryString binds an optional form-style query parameter.
func QueryString(r *http.Request, name string) (*string, error) {
	var value *string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &value); err != nil {
		return nil, fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	if value != nil {
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			return nil, nil
		}
		value = &trimmed
	}
	return value, nil
}

// BadRequest writes a 400 validation problem for a malformed request.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, NewProblem("Invalid request", detail, ProblemTypeValidation, http.StatusBadRequest, nil))
}
