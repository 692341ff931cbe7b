// Package auth issues and verifies bearer tokens and carries the
// authenticated caller through request contexts.
package auth

import (
	"context"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// Role names. They match the seeded rows of the roles table.
const (
	RoleAdmin    = "Admin"
	RoleCustomer = "Customer"
)

var (
	// ErrUnauthenticated is returned when a request carries no valid token.
	ErrUnauthenticated = apperr.Unauthorized("authentication required")
	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = apperr.Unauthorized("invalid or expired token")
	// ErrForbidden is returned when the caller lacks the required role or
	// does not own the resource.
	ErrForbidden = apperr.Forbidden("access denied")
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   string
	Username string
	Role     string
}

// IsAdmin reports whether p holds the Admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanAccessUser reports whether p may act on resources owned by userID.
func (p Principal) CanAccessUser(userID string) bool {
	return p.IsAdmin() || p.UserID == userID
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
