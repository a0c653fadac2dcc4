package auth

import (
	"context"

	"github.com/minh-le0205/tour-rest-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const IdentityContextKey ContextKey = "identity"

// WithIdentity attaches the authenticated user to ctx.
func WithIdentity(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, IdentityContextKey, u)
}

// IdentityFromContext extracts the user resolved by Protect.
func IdentityFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(IdentityContextKey).(*user.User)
	return u, ok && u != nil
}
