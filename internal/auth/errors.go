package auth

import (
	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
)

// Gate failures.
var (
	ErrMissingToken    = apperr.Unauthorized(httputil.CodeMissingAuth, "no token provided, please log in to get access")
	ErrInvalidToken    = apperr.Unauthorized(httputil.CodeInvalidToken, "invalid token, please log in again")
	ErrExpiredToken    = apperr.Unauthorized(httputil.CodeTokenExpired, "token has expired, please log in again")
	ErrIdentityGone    = apperr.Unauthorized(httputil.CodeIdentityGone, "the user belonging to this token no longer exists")
	ErrPasswordChanged = apperr.Unauthorized(httputil.CodePasswordChanged, "password recently changed, please re-authenticate")
	ErrForbidden       = apperr.Forbidden(httputil.CodeInsufficientRole, "you do not have permission to perform this action")
)

// Account flow failures.
var (
	ErrInvalidCredentials = apperr.Unauthorized(httputil.CodeInvalidCredentials, "incorrect email or password")
	ErrWrongPassword      = apperr.Unauthorized(httputil.CodeWrongPassword, "current password incorrect")
	ErrInvalidResetToken  = apperr.InvalidOrExpiredToken(httputil.CodeInvalidResetToken, "token is invalid or has expired")
	ErrDeliveryFailed     = apperr.Delivery(httputil.CodeDeliveryFailed, "there was an error sending the email, try again later")

	ErrCredentialsRequired = apperr.Validation(httputil.CodeCredentialsMissing, "please provide email and password")
	ErrEmailTaken          = apperr.Validation(httputil.CodeEmailAlreadyExists, "email already in use")
	ErrPasswordRequired    = apperr.Validation(httputil.CodePasswordRequired, "password is required")
	ErrPasswordTooShort    = apperr.Validation(httputil.CodePasswordTooShort, "password must be at least 8 characters")
	ErrPasswordTooLong     = apperr.Validation(httputil.CodePasswordTooLong, "password must be at most 128 characters")
	ErrPasswordMismatch    = apperr.Validation(httputil.CodePasswordMismatch, "passwords are not the same")
	ErrRoleNotAllowed      = apperr.Validation(httputil.CodeRoleNotAllowed, "role cannot be chosen at signup")
	ErrPasswordNotAllowed  = apperr.Validation(httputil.CodePasswordNotAllowed, "this route is not for password updates, please use /update-password")
	ErrRoleUpdateDenied    = apperr.Validation(httputil.CodeRoleNotAllowed, "role cannot be changed through this route")
)
