package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInternalError      = "internal_error"
	CodeInvalidRequestBody = "invalid_request_body"
	CodeRequestTooLarge    = "request_too_large"
	CodeRouteNotFound      = "route_not_found"
	CodeTooManyRequests    = "too_many_requests"
	CodeInvalidID          = "invalid_id"
	CodeInvalidQuery       = "invalid_query"

	// Authentication and authorization gates
	CodeMissingAuth      = "missing_auth"
	CodeInvalidToken     = "invalid_token"
	CodeTokenExpired     = "token_expired"
	CodeIdentityGone     = "identity_no_longer_exists"
	CodePasswordChanged  = "password_recently_changed"
	CodeInsufficientRole = "insufficient_role"

	// Account flows
	CodeInvalidCredentials = "invalid_credentials"
	CodeCredentialsMissing = "credentials_required"
	CodeWrongPassword      = "current_password_incorrect"
	CodeInvalidResetToken  = "invalid_or_expired_reset_token"
	CodeDeliveryFailed     = "delivery_failed"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeEmailRequired      = "email_required"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodePasswordTooLong    = "password_too_long"
	CodePasswordMismatch   = "password_confirm_mismatch"
	CodeRoleNotAllowed     = "role_not_allowed"
	CodeInvalidRole        = "invalid_role"
	CodePasswordNotAllowed = "password_update_not_allowed"
	CodeNameTooLong        = "name_too_long"
	CodeInvalidPhoto       = "invalid_photo"
	CodeUserNotFound       = "user_not_found"

	// Tours and reviews
	CodeTourNotFound    = "tour_not_found"
	CodeReviewNotFound  = "review_not_found"
	CodeInvalidTour     = "invalid_tour"
	CodeInvalidReview   = "invalid_review"
	CodeDuplicateTour   = "duplicate_tour"
	CodeDuplicateReview = "duplicate_review"
)
