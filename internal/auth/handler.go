package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

const forgotPasswordCooldown = 2 * time.Minute

// Cooldown throttles repeated requests for the same key.
type Cooldown interface {
	Cooldown(ctx context.Context, purpose, key string, d time.Duration) (bool, error)
	ClearCooldown(ctx context.Context, purpose, key string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service  *Service
	cooldown Cooldown
}

// NewHandler wires the auth endpoints. cooldown may be nil.
func NewHandler(service *Service, cooldown Cooldown) *Handler {
	return &Handler{service: service, cooldown: cooldown}
}

// SignUpRequest represents the signup request body
type SignUpRequest struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm"`
	Role            *string `json:"role,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// UpdatePasswordRequest represents a password change by a logged in user
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// UpdateMeRequest represents a profile change. Password and role fields are
// only decoded to be rejected.
type UpdateMeRequest struct {
	Name            *string         `json:"name,omitempty"`
	Email           *string         `json:"email,omitempty"`
	Photo           *string         `json:"photo,omitempty"`
	Password        json.RawMessage `json:"password,omitempty" swaggerignore:"true"`
	PasswordConfirm json.RawMessage `json:"password_confirm,omitempty" swaggerignore:"true"`
	CurrentPassword json.RawMessage `json:"current_password,omitempty" swaggerignore:"true"`
	Role            json.RawMessage `json:"role,omitempty" swaggerignore:"true"`
}

// UserData wraps a user profile in responses
type UserData struct {
	User user.Profile `json:"user"`
}

// AuthResponse is returned whenever a new token is issued
type AuthResponse struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	Data   UserData `json:"data"`
}

// UserResponse is returned for profile reads and updates
type UserResponse struct {
	Status string   `json:"status"`
	Data   UserData `json:"data"`
}

// MessageResponse carries a human readable outcome
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func respondAuth(w http.ResponseWriter, result *AuthResult, statusCode int) {
	httputil.RespondJSON(w, AuthResponse{
		Status: "success",
		Token:  result.Token,
		Data:   UserData{User: result.User.Public()},
	}, statusCode)
}

func respondUser(w http.ResponseWriter, u *user.User) {
	httputil.RespondJSON(w, UserResponse{
		Status: "success",
		Data:   UserData{User: u.Public()},
	}, http.StatusOK)
}

// SignUp handles user registration
// @Summary      Sign up
// @Description  Create a user account with the lowest role and receive an identity token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignUpRequest true "Account details"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or email already in use"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/v1/users/signup [post]
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	in := SignUpInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	}
	if req.Role != nil {
		role, err := user.ParseRole(*req.Role)
		if err != nil {
			httputil.RespondError(w, r, user.ErrInvalidRole.Wrap(err))
			return
		}
		in.Role = &role
	}

	result, err := h.service.SignUp(r.Context(), in)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("user signed up", "user_id", result.User.ID.String())
	respondAuth(w, result, http.StatusCreated)
}

// Login handles user login
// @Summary      Log in
// @Description  Exchange email and password for an identity token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing email or password"
// @Failure      401 {object} httputil.ErrorResponse "Incorrect email or password"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/v1/users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("user logged in", "user_id", result.User.ID.String())
	respondAuth(w, result, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Forgot password
// @Description  Email a one-time reset token. The response is the same whether or not the account exists.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      502 {object} httputil.ErrorResponse "Email could not be sent"
// @Router       /api/v1/users/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	email := user.NormalizeEmail(req.Email)
	if email == "" {
		httputil.RespondError(w, r, user.ErrEmailRequired)
		return
	}

	claimed := false
	if h.cooldown != nil {
		active, err := h.cooldown.Cooldown(r.Context(), "forgot_password", email, forgotPasswordCooldown)
		if err != nil {
			// Continue despite error
			logger.Error("failed to check email cooldown", "error", err.Error())
		} else if active {
			httputil.RespondError(w, r, apperr.TooManyRequests(httputil.CodeTooManyRequests,
				"please wait before requesting another reset"))
			return
		} else {
			claimed = true
		}
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		// nothing was sent, so a retry must not wait out the cooldown
		if claimed {
			if clearErr := h.cooldown.ClearCooldown(r.Context(), "forgot_password", email); clearErr != nil {
				logger.Error("failed to clear email cooldown", "error", clearErr.Error())
			}
		}
		httputil.RespondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, MessageResponse{
		Status:  "success",
		Message: "If an account exists with that email, a password reset token has been sent.",
	}, http.StatusOK)
}

// ResetPassword handles password reset confirmation
// @Summary      Reset password
// @Description  Set a new password with a reset token and receive a fresh identity token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token   path string               true "Reset token"
// @Param        request body ResetPasswordRequest true "New password"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token, or validation error"
// @Router       /api/v1/users/reset-password/{token} [patch]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	result, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password, req.PasswordConfirm)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("password reset", "user_id", result.User.ID.String())
	respondAuth(w, result, http.StatusOK)
}

// UpdatePassword handles password changes by the logged in user
// @Summary      Update password
// @Description  Change the password after confirming the current one. Older tokens stop working.
// @Tags         me
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdatePasswordRequest true "Current and new password"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Not logged in or current password incorrect"
// @Router       /api/v1/users/update-password [patch]
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req UpdatePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	result, err := h.service.UpdatePassword(r.Context(), identity, req.CurrentPassword, req.Password, req.PasswordConfirm)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("password updated")
	respondAuth(w, result, http.StatusOK)
}

// GetMe returns the current user
// @Summary      Current user
// @Tags         me
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} httputil.ErrorResponse "Not logged in"
// @Router       /api/v1/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	me, err := h.service.GetMe(identity)
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}
	respondUser(w, me)
}

// UpdateMe updates the current user's profile
// @Summary      Update profile
// @Description  Change name, email or photo. Password and role cannot be changed here.
// @Tags         me
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateMeRequest true "Profile fields"
// @Success      200 {object} UserResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Not logged in"
// @Router       /api/v1/users/update-me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req UpdateMeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	updated, err := h.service.UpdateMe(r.Context(), identity, ProfileUpdate{
		Name:        req.Name,
		Email:       req.Email,
		Photo:       req.Photo,
		HasPassword: len(req.Password) > 0 || len(req.PasswordConfirm) > 0 || len(req.CurrentPassword) > 0,
		HasRole:     len(req.Role) > 0,
	})
	if err != nil {
		httputil.RespondError(w, r, err)
		return
	}
	respondUser(w, updated)
}

// DeleteMe deactivates the current user
// @Summary      Delete account
// @Description  Deactivate the account. Existing tokens stop working.
// @Tags         me
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} httputil.ErrorResponse "Not logged in"
// @Router       /api/v1/users/delete-me [delete]
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	if err := h.service.DeleteMe(r.Context(), identity); err != nil {
		httputil.RespondError(w, r, err)
		return
	}

	logging.GetLoggerFromContext(r.Context()).Info("user deactivated own account")
	httputil.RespondNoContent(w)
}
