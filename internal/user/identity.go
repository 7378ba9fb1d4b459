package user

import (
	"context"

	"github.com/google/uuid"
)

type identityContextKey struct{}

// Identity is the authenticated caller, resolved against the users table
// by the access-guard middleware.
type Identity struct {
	UserID        uuid.UUID
	Email         string
	DisplayName   string
	EmailVerified bool
	Role          Role
}

// ContextWithIdentity stores the caller identity in the context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the caller identity, if one was stored.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	return identity, ok
}
