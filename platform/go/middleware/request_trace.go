package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/booking-funnel/platform/go/auth"
	platformlogging "github.com/zenGate-Global/booking-funnel/platform/go/logging"
	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

// RoleChecker resolves platform roles for an authenticated user.
type RoleChecker interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// PlatformAdminRole is the user_roles value that grants platform-admin rights.
const PlatformAdminRole = "platform_admin"

// RequestTrace populates the context with request-scoped AuditInfo. It must run after
// authentication so user credentials are available when present. When roles is non-nil the
// platform-admin flag is looked up for authenticated users.
func RequestTrace(roles RoleChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := platformlogging.FromRequest(r, zap.NewNop())
			requestID := middleware.GetReqID(r.Context())

			var audit requesttrace.AuditInfo
			if creds, ok := platformauth.UserFromContext(r.Context()); ok && creds != nil {
				var err error
				audit, err = requesttrace.FromCredentials(creds, requestID)
				if err != nil {
					logger.Error("build audit info from credentials", zap.Error(err))
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}

				if roles != nil {
					isAdmin, err := roles.HasRole(r.Context(), creds.ID, PlatformAdminRole)
					if err != nil {
						logger.Error("resolve platform role", zap.Error(err))
						http.Error(w, "internal server error", http.StatusInternalServerError)
						return
					}
					audit.PlatformAdmin = isAdmin
				}
			} else {
				audit = requesttrace.Anonymous(requestID)
			}

			fields := []zap.Field{zap.String("actor_kind", string(audit.ActorKind))}
			if user, ok := audit.User(); ok {
				fields = append(fields, zap.String("user_id", user), zap.Bool("platform_admin", audit.PlatformAdmin))
			}
			platformlogging.Enrich(r.Context(), fields...)

			next.ServeHTTP(w, r.WithContext(requesttrace.IntoContext(r.Context(), audit)))
		})
	}
}
