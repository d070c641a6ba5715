package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/zenGate-Global/booking-funnel/platform/go/httpapi"
)

// BearerSchemeName is the security scheme name used by the booking contract.
const BearerSchemeName = "bearerAuth"

var errMissingBearer = errors.New("missing or invalid Authorization header")

// ValidateBearerPresence satisfies operations that declare bearerAuth. Token
// verification happens in the auth middleware; here only the header shape is checked.
func ValidateBearerPresence(_ context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil || input.SecuritySchemeName != BearerSchemeName {
		return nil
	}
	r := input.RequestValidationInput.Request
	if r == nil {
		return errMissingBearer
	}
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return errMissingBearer
	}
	return nil
}

// OpenAPIValidator enforces spec on every request routed through it. Failures
// are reported as application/problem+json.
func OpenAPIValidator(spec *openapi3.T) func(http.Handler) http.Handler {
	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: ValidateBearerPresence,
		},
		ErrorHandler: writeValidationProblem,
	})
}

func writeValidationProblem(w http.ResponseWriter, message string, statusCode int) {
	problemType := httpapi.ProblemTypeValidation
	title := "Request does not match the API contract"
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		problemType = httpapi.ProblemTypeUnauthorized
		title = "Authentication required"
	case http.StatusNotFound:
		problemType = httpapi.ProblemTypeNotFound
		title = "Route not found"
	}

	httpapi.WriteProblem(w, httpapi.NewProblem(title, strings.TrimSpace(message), problemType, statusCode, nil))
}
