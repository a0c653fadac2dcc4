package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

type fakeCooldown struct {
	seen    map[string]bool
	err     error
	cleared []string
}

func (c *fakeCooldown) ClearCooldown(_ context.Context, purpose, key string) error {
	delete(c.seen, purpose+":"+key)
	c.cleared = append(c.cleared, key)
	return nil
}

func (c *fakeCooldown) Cooldown(_ context.Context, purpose, key string, _ time.Duration) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	k := purpose + ":" + key
	active := c.seen[k]
	c.seen[k] = true
	return active, nil
}

func newTestRouter(env *testEnv, cooldown Cooldown) http.Handler {
	h := NewHandler(env.service, cooldown)

	r := chi.NewRouter()
	r.Post("/signup", h.SignUp)
	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Patch("/reset-password/{token}", h.ResetPassword)
	r.Group(func(r chi.Router) {
		r.Use(env.gate.Protect)
		r.Patch("/update-password", h.UpdatePassword)
		r.Get("/me", h.GetMe)
		r.Patch("/update-me", h.UpdateMe)
		r.Delete("/delete-me", h.DeleteMe)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) AuthResponse {
	t.Helper()
	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandler_SignUpAndLogin(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)

	rec := doJSON(t, router, http.MethodPost, "/signup", "", map[string]string{
		"name": "Ann", "email": "a@x.com", "password": "Secret123", "password_confirm": "Secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	signup := decodeAuth(t, rec)
	assert.Equal(t, "success", signup.Status)
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "a@x.com", signup.Data.User.Email)
	assert.Equal(t, user.RoleUser, signup.Data.User.Role)

	rec = doJSON(t, router, http.MethodPost, "/signup", "", map[string]string{
		"name": "Ann", "email": "a@x.com", "password": "Secret123", "password_confirm": "Secret123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeEmailAlreadyExists, errorCode(t, rec))

	rec = doJSON(t, router, http.MethodPost, "/login", "", LoginRequest{Email: "a@x.com", Password: "Secret123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeAuth(t, rec).Token)

	wrong := doJSON(t, router, http.MethodPost, "/login", "", LoginRequest{Email: "a@x.com", Password: "Wrong1234"})
	unknown := doJSON(t, router, http.MethodPost, "/login", "", LoginRequest{Email: "z@x.com", Password: "Wrong1234"})
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/login", "", LoginRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeCredentialsMissing, errorCode(t, rec))
}

func TestHandler_SignUpRoleField(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)

	rec := doJSON(t, router, http.MethodPost, "/signup", "", map[string]string{
		"name": "Eve", "email": "e@x.com", "password": "Secret123", "password_confirm": "Secret123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeRoleNotAllowed, errorCode(t, rec))

	rec = doJSON(t, router, http.MethodPost, "/signup", "", map[string]string{
		"name": "Eve", "email": "e@x.com", "password": "Secret123", "password_confirm": "Secret123", "role": "superuser",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidRole, errorCode(t, rec))
}

func TestHandler_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)

	rec := doJSON(t, router, http.MethodPost, "/signup", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidRequestBody, errorCode(t, rec))
}

func TestHandler_ForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)
	env.signUp(t, "a@x.com")

	known := doJSON(t, router, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: "a@x.com"})
	unknown := doJSON(t, router, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: "nobody@x.com"})
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	token := env.delivery.last(t).token
	env.clock.Advance(time.Second)

	rec := doJSON(t, router, http.MethodPatch, "/reset-password/"+token, "", ResetPasswordRequest{
		Password: "NewSecret456", PasswordConfirm: "NewSecret456",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decodeAuth(t, rec)
	assert.NotEmpty(t, fresh.Token)

	rec = doJSON(t, router, http.MethodPatch, "/reset-password/"+token, "", ResetPasswordRequest{
		Password: "NewSecret456", PasswordConfirm: "NewSecret456",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidResetToken, errorCode(t, rec))

	rec = doJSON(t, router, http.MethodGet, "/me", fresh.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ForgotPasswordDeliveryFailure(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)
	env.signUp(t, "a@x.com")
	env.delivery.err = errors.New("smtp: 554")

	rec := doJSON(t, router, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, httputil.CodeDeliveryFailed, errorCode(t, rec))
}

func TestHandler_ForgotPasswordCooldown(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, &fakeCooldown{})
	env.signUp(t, "a@x.com")

	first := doJSON(t, router, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, router, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: " A@X.com "})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Len(t, env.delivery.sent, 1)

	broken := newTestRouter(env, &fakeCooldown{err: errors.New("redis down")})
	rec := doJSON(t, broken, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ForgotPasswordCooldownReleasedOnFailure(t *testing.T) {
	env := newTestEnv(t)
	cooldown := &fakeCooldown{}
	router := newTestRouter(env, cooldown)
	env.signUp(t, "a@x.com")

	env.delivery.err = errors.New("smtp: 554")
	rec := doJSON(t, router, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: "a@x.com"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []string{"a@x.com"}, cooldown.cleared)

	env.delivery.err = nil
	rec = doJSON(t, router, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: "a@x.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.delivery.sent, 1)
}

func TestHandler_ForgotPasswordEmptyEmailSkipsCooldown(t *testing.T) {
	env := newTestEnv(t)
	cooldown := &fakeCooldown{}
	router := newTestRouter(env, cooldown)

	rec := doJSON(t, router, http.MethodPost, "/forgot-password", "", ForgotPasswordRequest{Email: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeEmailRequired, errorCode(t, rec))
	assert.Empty(t, cooldown.seen)
}

func TestHandler_UpdatePassword(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)
	signed := env.signUp(t, "a@x.com")
	env.clock.Advance(2 * time.Second)

	rec := doJSON(t, router, http.MethodPatch, "/update-password", signed.Token, UpdatePasswordRequest{
		CurrentPassword: "nope", Password: "NewSecret456", PasswordConfirm: "NewSecret456",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeWrongPassword, errorCode(t, rec))

	rec = doJSON(t, router, http.MethodPatch, "/update-password", signed.Token, UpdatePasswordRequest{
		CurrentPassword: "Secret123", Password: "NewSecret456", PasswordConfirm: "NewSecret456",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decodeAuth(t, rec)

	rec = doJSON(t, router, http.MethodGet, "/me", signed.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodePasswordChanged, errorCode(t, rec))

	rec = doJSON(t, router, http.MethodGet, "/me", fresh.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_UpdateMe(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)
	signed := env.signUp(t, "a@x.com")

	rec := doJSON(t, router, http.MethodPatch, "/update-me", signed.Token, map[string]string{"name": "Ann Updated"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp UserResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Ann Updated", resp.Data.User.Name)

	rec = doJSON(t, router, http.MethodPatch, "/update-me", signed.Token, map[string]string{"password": "Whatever1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodePasswordNotAllowed, errorCode(t, rec))

	rec = doJSON(t, router, http.MethodPatch, "/update-me", signed.Token, `{"role":"admin","name":"Eve"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeRoleNotAllowed, errorCode(t, rec))

	stored, err := env.store.FindByID(context.Background(), signed.User.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, stored.Role)
	assert.Equal(t, "Ann Updated", stored.Name)
}

func TestHandler_DeleteMe(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)
	signed := env.signUp(t, "a@x.com")

	rec := doJSON(t, router, http.MethodDelete, "/delete-me", signed.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, strings.TrimSpace(rec.Body.String()))

	rec = doJSON(t, router, http.MethodGet, "/me", signed.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/login", "", LoginRequest{Email: "a@x.com", Password: "Secret123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	router := newTestRouter(env, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodPatch, "/update-me"},
		{http.MethodPatch, "/update-password"},
		{http.MethodDelete, "/delete-me"},
	} {
		rec := doJSON(t, router, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}
