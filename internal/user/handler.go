package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

var (
	errUserNotFound = apperr.NotFound(httputil.CodeUserNotFound, "no user found with that id")
	errEmailTaken   = apperr.Validation(httputil.CodeEmailAlreadyExists, "email already in use")
)

// AdminStore is the persistence the admin handlers need.
type AdminStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, opts ListOptions) ([]*User, error)
	Update(ctx context.Context, id uuid.UUID, p Patch) (*User, error)
}

// AccountCreator hashes the password and stores a new account with any
// role.
type AccountCreator interface {
	CreateAccount(ctx context.Context, in NewAccount) (*User, error)
}

// Handler serves the admin-only user management routes.
type Handler struct {
	store    AdminStore
	accounts AccountCreator
}

func NewHandler(store AdminStore, accounts AccountCreator) *Handler {
	return &Handler{store: store, accounts: accounts}
}

type CreateUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Photo *string `json:"photo,omitempty"`
	Role  *string `json:"role,omitempty"`
}

type ProfileData struct {
	User Profile `json:"user"`
}

type ProfileResponse struct {
	Status string      `json:"status"`
	Data   ProfileData `json:"data"`
}

type ProfilesData struct {
	Users []Profile `json:"users"`
}

type ProfilesResponse struct {
	Status  string       `json:"status"`
	Results int          `json:"results"`
	Data    ProfilesData `json:"data"`
}

func respondProfile(w http.ResponseWriter, u *User, statusCode int) {
	httputil.RespondJSON(w, ProfileResponse{Status: "success", Data: ProfileData{User: u.Public()}}, statusCode)
}

// List returns active users
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        role   query string false "Only users with this role"
// @Param        limit  query int    false "Page size (max 100)"
// @Param        offset query int    false "Offset"
// @Success      200 {object} ProfilesResponse
// @Failure      403 {object} httputil.ErrorResponse "Admins only"
// @Router       /api/v1/users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts ListOptions
	var err error

	if opts.Limit, err = httputil.IntQuery(q, "limit"); err != nil {
		httputil.RespondError(w, r, err)
		return
	}
	if opts.Offset, err = httputil.IntQuery(q, "offset"); err != nil {
		httputil.RespondError(w, r, err)
		return
	}
	if v := q.Get("role"); v != "" {
		role, err := ParseRole(v)
		if err != nil {
			httputil.RespondError(w, r, ErrInvalidRole.Wrap(err))
			return
		}
		opts.Role = &role
	}

	users, err := h.store.List(r.Context(), opts)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Public())
	}
	httputil.RespondJSON(w, ProfilesResponse{
		Status:  "success",
		Results: len(profiles),
		Data:    ProfilesData{Users: profiles},
	}, http.StatusOK)
}

// Create adds an account with any role
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateUserRequest true "New account"
// @Success      201 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      403 {object} httputil.ErrorResponse "Admins only"
// @Router       /api/v1/users [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	role := RoleUser
	if req.Role != "" {
		parsed, err := ParseRole(req.Role)
		if err != nil {
			httputil.RespondError(w, r, ErrInvalidRole.Wrap(err))
			return
		}
		role = parsed
	}

	created, err := h.accounts.CreateAccount(r.Context(), NewAccount{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Role:            role,
	})
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("account created by admin",
		"user_id", created.ID.String(),
		"role", created.Role.String(),
	)
	respondProfile(w, created, http.StatusCreated)
}

// Get returns one user
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} ProfileResponse
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /api/v1/users/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	u, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		httputil.RespondError(w, r, storeError(err))
		return
	}
	respondProfile(w, u, http.StatusOK)
}

// Update changes profile fields or the role of a user
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string            true "User ID"
// @Param        request body UpdateUserRequest true "Fields to change"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /api/v1/users/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	var req UpdateUserRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	patch, err := req.patch()
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	var updated *User
	if patch.Empty() {
		updated, err = h.store.FindByID(r.Context(), id)
	} else {
		updated, err = h.store.Update(r.Context(), id, patch)
	}
	if err != nil {
		httputil.RespondError(w, r, storeError(err))
		return
	}
	respondProfile(w, updated, http.StatusOK)
}

// Deactivate soft-deletes a user
// @Summary      Deactivate user
// @Tags         users
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      204
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /api/v1/users/{id} [delete]
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.UUIDParam(r, "id")
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	if _, err := h.store.Update(r.Context(), id, Patch{Active: Ptr(false)}); err != nil {
		httputil.RespondError(w, r, storeError(err))
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("account deactivated by admin", "user_id", id.String())
	httputil.RespondNoContent(w)
}

func (req UpdateUserRequest) patch() (Patch, error) {
	var p Patch
	if req.Name != nil {
		name, err := ValidateName(*req.Name)
		if err != nil {
			return p, err
		}
		p.Name = &name
	}
	if req.Email != nil {
		email, err := ValidateEmail(*req.Email)
		if err != nil {
			return p, err
		}
		p.Email = &email
	}
	if req.Photo != nil {
		photo, err := ValidatePhoto(*req.Photo)
		if err != nil {
			return p, err
		}
		p.Photo = &photo
	}
	if req.Role != nil {
		role, err := ParseRole(*req.Role)
		if err != nil {
			return p, ErrInvalidRole.Wrap(err)
		}
		p.Role = &role
	}
	return p, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return errUserNotFound.Wrap(err)
	case errors.Is(err, ErrDuplicateEmail):
		return errEmailTaken.Wrap(err)
	}
	return err
}
