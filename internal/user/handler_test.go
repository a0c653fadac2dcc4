package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minh-le0205/tour-rest-api/internal/httputil"
)

// storeCreator stores accounts without hashing so the handler can be tested
// on its own.
type storeCreator struct {
	store *MemoryStore
}

func (c storeCreator) CreateAccount(ctx context.Context, in NewAccount) (*User, error) {
	email, err := ValidateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	u, err := c.store.Create(ctx, &User{Name: in.Name, Email: email, Role: in.Role, PasswordHash: "hashed:" + in.Password})
	if err != nil {
		return nil, storeError(err)
	}
	return u, nil
}

func newAdminRouter(t *testing.T) (http.Handler, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	h := NewHandler(store, storeCreator{store: store})

	r := chi.NewRouter()
	r.Get("/users", h.List)
	r.Post("/users", h.Create)
	r.Get("/users/{id}", h.Get)
	r.Patch("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Deactivate)
	return r, store
}

func send(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, store *MemoryStore, email string, role Role) *User {
	t.Helper()
	u, err := store.Create(context.Background(), &User{Name: "Seeded", Email: email, Role: role, PasswordHash: "h"})
	require.NoError(t, err)
	return u
}

func TestHandler_Create(t *testing.T) {
	router, store := newAdminRouter(t)

	rec := send(router, http.MethodPost, "/users",
		`{"name":"Leo","email":"Leo@Example.com","password":"Secret123","password_confirm":"Secret123","role":"lead-guide"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "hashed:")

	var resp ProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, RoleLeadGuide, resp.Data.User.Role)
	assert.Equal(t, "leo@example.com", resp.Data.User.Email)

	stored, err := store.FindByID(context.Background(), resp.Data.User.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleLeadGuide, stored.Role)
}

func TestHandler_Create_DefaultsToUserRole(t *testing.T) {
	router, _ := newAdminRouter(t)

	rec := send(router, http.MethodPost, "/users", `{"name":"Ann","email":"ann@example.com","password":"x","password_confirm":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, RoleUser, resp.Data.User.Role)
}

func TestHandler_Create_Errors(t *testing.T) {
	router, store := newAdminRouter(t)
	seed(t, store, "taken@example.com", RoleUser)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"unknown role", `{"email":"a@example.com","role":"root"}`, httputil.CodeInvalidRole},
		{"duplicate email", `{"email":"TAKEN@example.com"}`, httputil.CodeEmailAlreadyExists},
		{"bad email", `{"email":"nope"}`, httputil.CodeInvalidEmailFormat},
		{"malformed", `[`, httputil.CodeInvalidRequestBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(router, http.MethodPost, "/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp httputil.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestHandler_List(t *testing.T) {
	router, store := newAdminRouter(t)
	store.SetClock(steppingClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	seed(t, store, "a@example.com", RoleUser)
	seed(t, store, "b@example.com", RoleGuide)
	gone := seed(t, store, "c@example.com", RoleGuide)
	_, err := store.Update(context.Background(), gone.ID, Patch{Active: Ptr(false)})
	require.NoError(t, err)

	rec := send(router, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all ProfilesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&all))
	assert.Equal(t, 2, all.Results)
	assert.Equal(t, "b@example.com", all.Data.Users[0].Email, "newest first")

	rec = send(router, http.MethodGet, "/users?role=guide", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var guides ProfilesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&guides))
	require.Len(t, guides.Data.Users, 1)
	assert.Equal(t, RoleGuide, guides.Data.Users[0].Role)

	assert.Equal(t, http.StatusBadRequest, send(router, http.MethodGet, "/users?role=root", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(router, http.MethodGet, "/users?offset=x", "").Code)
}

func TestHandler_GetAndUpdate(t *testing.T) {
	router, store := newAdminRouter(t)
	u := seed(t, store, "guide@example.com", RoleGuide)
	seed(t, store, "other@example.com", RoleUser)
	path := "/users/" + u.ID.String()

	rec := send(router, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(router, http.MethodPatch, path, `{"name":"  Lead  ","role":"lead-guide","photo":"lead.jpg"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ProfileResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Lead", resp.Data.User.Name)
	assert.Equal(t, RoleLeadGuide, resp.Data.User.Role)
	assert.Equal(t, "lead.jpg", resp.Data.User.Photo)

	rec = send(router, http.MethodPatch, path, `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"email taken", `{"email":"other@example.com"}`, httputil.CodeEmailAlreadyExists},
		{"bad role", `{"role":"owner"}`, httputil.CodeInvalidRole},
		{"bad photo", `{"photo":"../etc/passwd"}`, httputil.CodeInvalidPhoto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(router, http.MethodPatch, path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestHandler_NotFound(t *testing.T) {
	router, _ := newAdminRouter(t)
	path := "/users/" + uuid.NewString()

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		body := ""
		if method == http.MethodPatch {
			body = `{"name":"x"}`
		}
		rec := send(router, method, path, body)
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.Contains(t, rec.Body.String(), httputil.CodeUserNotFound)
	}

	assert.Equal(t, http.StatusBadRequest, send(router, http.MethodGet, "/users/123", "").Code)
}

func TestHandler_Deactivate(t *testing.T) {
	router, store := newAdminRouter(t)
	u := seed(t, store, "leaving@example.com", RoleUser)

	rec := send(router, http.MethodDelete, "/users/"+u.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := store.FindByID(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	seed(t, store, "leaving@example.com", RoleUser)
}
