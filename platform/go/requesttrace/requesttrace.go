// Package requesttrace carries the explicit per-request session: who is acting,
// whether they are a platform admin, and the request id. Handlers read it once
// and pass it into every service call.
package requesttrace

import (
	"context"
	"errors"

	platformauth "github.com/zenGate-Global/booking-funnel/platform/go/auth"
)

type contextKey string

const (
	ctxAuditInfo contextKey = "BOOKING_REQUEST_TRACE"
)

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindAnonymous ActorKind = "anonymous"
	ActorKindSystem    ActorKind = "system"
)

// AuditInfo captures request-scoped metadata needed for authorization and auditing.
// UserID is set only when ActorKind is user. PlatformAdmin is resolved from
// user_roles, never from token claims.
type AuditInfo struct {
	ActorKind     ActorKind
	UserID        *string
	Email         string
	PlatformAdmin bool
	RequestID     string
}

// User returns the acting user id when the actor is an authenticated user.
func (a AuditInfo) User() (string, bool) {
	if a.ActorKind != ActorKindUser || a.UserID == nil || *a.UserID == "" {
		return "", false
	}
	return *a.UserID, true
}

// IntoContext stores the AuditInfo in the provided context.
func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, ctxAuditInfo, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	audit, ok := ctx.Value(ctxAuditInfo).(AuditInfo)
	return audit, ok
}

// FromContextOrAnonymous returns the AuditInfo stored on the context, or an anonymous record when absent.
func FromContextOrAnonymous(ctx context.Context) AuditInfo {
	if audit, ok := FromContext(ctx); ok {
		return audit
	}
	return Anonymous("")
}

// FromCredentials builds an AuditInfo from authenticated user credentials and a request ID.
func FromCredentials(creds *platformauth.UserCredentials, requestID string) (AuditInfo, error) {
	if creds == nil {
		return AuditInfo{}, errors.New("credentials are required to build audit info")
	}
	if creds.ID == "" {
		return AuditInfo{}, errors.New("user id is required to build audit info")
	}

	id := creds.ID
	return AuditInfo{
		ActorKind: ActorKindUser,
		UserID:    &id,
		Email:     creds.Email,
		RequestID: requestID,
	}, nil
}

// Anonymous builds an AuditInfo for unauthenticated requests such as public lead intake.
func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

// System builds an AuditInfo for CLI and background operations. System actors
// carry platform-admin rights.
func System(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindSystem, PlatformAdmin: true, RequestID: requestID}
}
