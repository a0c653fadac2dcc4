package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

func serveProtected(t *testing.T, h http.Handler, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(identity.ID.String()))
	})
}

func TestProtect_AttachesIdentity(t *testing.T) {
	env := newTestEnv(t)
	signed := env.signUp(t, "a@x.com")

	rec := serveProtected(t, env.gate.Protect(identityEcho()), "Bearer "+signed.Token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, signed.User.ID.String(), rec.Body.String())
}

func TestProtect_Rejections(t *testing.T) {
	env := newTestEnv(t)
	signed := env.signUp(t, "a@x.com")

	ghost, err := env.tokens.Issue(uuid.New())
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"no header", "", httputil.CodeMissingAuth},
		{"wrong scheme", "Basic " + signed.Token, httputil.CodeMissingAuth},
		{"bearer without token", "Bearer ", httputil.CodeMissingAuth},
		{"garbage token", "Bearer not-a-token", httputil.CodeInvalidToken},
		{"unknown subject", "Bearer " + ghost, httputil.CodeIdentityGone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveProtected(t, env.gate.Protect(identityEcho()), tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.wantCode, errorCode(t, rec))
		})
	}

	assert.Equal(t, len(tests), env.events.count("protect/rejected"))
}

func TestProtect_SchemeIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	signed := env.signUp(t, "a@x.com")

	rec := serveProtected(t, env.gate.Protect(identityEcho()), "bearer "+signed.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtect_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	signed := env.signUp(t, "a@x.com")

	env.clock.Advance(time.Hour + time.Second)

	rec := serveProtected(t, env.gate.Protect(identityEcho()), "Bearer "+signed.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeTokenExpired, errorCode(t, rec))
}

func TestAuthenticate_RejectsTokenOlderThanPasswordChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	signed := env.signUp(t, "a@x.com")

	env.clock.Advance(5 * time.Second)
	changedAt := env.clock.Now()
	_, err := env.store.Update(ctx, signed.User.ID, user.Patch{PasswordChangedAt: &changedAt})
	require.NoError(t, err)

	// The token itself is still valid.
	_, err = env.tokens.Verify(signed.Token)
	require.NoError(t, err)

	_, err = env.gate.Authenticate(ctx, "Bearer "+signed.Token)
	assert.ErrorIs(t, err, ErrPasswordChanged)

	fresh, err := env.tokens.Issue(signed.User.ID)
	require.NoError(t, err)
	identity, err := env.gate.Authenticate(ctx, "Bearer "+fresh)
	require.NoError(t, err)
	assert.Equal(t, signed.User.ID, identity.ID)
}

func TestProtect_DeleteMeRevokesExistingToken(t *testing.T) {
	env := newTestEnv(t)
	signed := env.signUp(t, "a@x.com")
	h := env.gate.Protect(identityEcho())

	require.Equal(t, http.StatusOK, serveProtected(t, h, "Bearer "+signed.Token).Code)

	require.NoError(t, env.service.DeleteMe(context.Background(), signed.User))

	rec := serveProtected(t, h, "Bearer "+signed.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeIdentityGone, errorCode(t, rec))
}

func TestRestrictTo(t *testing.T) {
	env := newTestEnv(t)
	regular := env.signUp(t, "user@x.com")
	admin := env.signUp(t, "admin@x.com")
	env.promote(t, admin, user.RoleAdmin)

	reached := 0
	h := env.gate.Protect(RestrictTo(user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := serveProtected(t, h, "Bearer "+regular.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, httputil.CodeInsufficientRole, errorCode(t, rec))
	assert.Zero(t, reached)

	rec = serveProtected(t, h, "Bearer "+admin.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, reached)
}

func TestRestrictTo_WithoutIdentity(t *testing.T) {
	h := RestrictTo(user.RoleAdmin, user.RoleLeadGuide)(identityEcho())

	rec := serveProtected(t, h, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthorize(t *testing.T) {
	allowed := user.NewRoleSet(user.RoleLeadGuide, user.RoleAdmin)

	for _, role := range user.Roles() {
		err := Authorize(&user.User{Role: role}, allowed)
		if role == user.RoleLeadGuide || role == user.RoleAdmin {
			assert.NoError(t, err, role.String())
		} else {
			assert.ErrorIs(t, err, ErrForbidden, role.String())
		}
	}
	assert.ErrorIs(t, Authorize(nil, allowed), ErrForbidden)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"BEARER abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer a b", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		token, ok := bearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.token, token, tc.header)
	}
}
