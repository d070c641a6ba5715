// Package access decides whether the caller described by a requesttrace.AuditInfo
// may act on a profile.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/requesttrace"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
)

// MemberChecker reports profile membership.
type MemberChecker interface {
	IsMember(ctx context.Context, profileID uuid.UUID, userID string) (bool, error)
}

// Guard authorizes profile-scoped operations.
type Guard struct {
	members MemberChecker
}

func NewGuard(members MemberChecker) *Guard {
	if members == nil {
		panic("member checker is required")
	}
	return &Guard{members: members}
}

// RequireProfile passes platform admins and members of profileID.
func (g *Guard) RequireProfile(ctx context.Context, audit requesttrace.AuditInfo, profileID uuid.UUID) error {
	if audit.PlatformAdmin {
		return nil
	}
	userID, ok := audit.User()
	if !ok {
		return ErrUnauthenticated
	}

	member, err := g.members.IsMember(ctx, profileID, userID)
	if err != nil {
		return fmt.Errorf("check profile membership: %w", err)
	}
	if !member {
		return ErrForbidden
	}
	return nil
}

// RequireUser returns the caller's user id.
func RequireUser(audit requesttrace.AuditInfo) (string, error) {
	userID, ok := audit.User()
	if !ok {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// RequirePlatformAdmin passes only platform admins.
func RequirePlatformAdmin(audit requesttrace.AuditInfo) error {
	if audit.PlatformAdmin {
		return nil
	}
	if _, ok := audit.User(); !ok {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
