package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

// IdentityFinder is the slice of the store the authentication gate needs.
type IdentityFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
	users        IdentityFinder
	events       EventRecorder
}

func NewMiddleware(tokenService TokenService, users IdentityFinder, events EventRecorder) *Middleware {
	if events == nil {
		events = noopRecorder{}
	}
	return &Middleware{tokenService: tokenService, users: users, events: events}
}

// Authenticate resolves the identity behind an Authorization header value.
// It has no side effects.
func (m *Middleware) Authenticate(ctx context.Context, authHeader string) (*user.User, error) {
	token, ok := bearerToken(authHeader)
	if !ok {
		return nil, ErrMissingToken
	}

	claims, err := m.tokenService.Verify(token)
	if err != nil {
		return nil, err
	}

	identity, err := m.users.FindByID(ctx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrIdentityGone
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if !identity.Active {
		return nil, ErrIdentityGone
	}

	if ChangedAfter(identity.PasswordChangedAt, claims.IssuedAt) {
		return nil, ErrPasswordChanged
	}

	return identity, nil
}

// Protect is the authentication gate: it rejects the request or continues
// with the identity attached to the context.
func (m *Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			m.events.AuthEvent("protect", "rejected")
			httputil.RespondError(w, r, err)
			return
		}

		ctx := WithIdentity(r.Context(), identity)
		logger := logging.GetLoggerFromContext(ctx).WithFields(map[string]any{"user_id": identity.ID.String()})
		ctx = logging.WithLogger(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize checks identity against an allow-set. It must run after the
// authentication gate.
func Authorize(identity *user.User, allowed user.RoleSet) error {
	if identity == nil || !allowed.Contains(identity.Role) {
		return ErrForbidden
	}
	return nil
}

// RestrictTo is the authorization gate. The allow-set is fixed when the
// route is registered.
func RestrictTo(roles ...user.Role) func(http.Handler) http.Handler {
	allowed := user.NewRoleSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())
			if err := Authorize(identity, allowed); err != nil {
				httputil.RespondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts <token> from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
