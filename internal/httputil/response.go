package httputil

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Status string `json:"status"` // "fail" for 4xx, "error" for 5xx
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondNoContent sends an empty 204 response.
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	status := "fail"
	if statusCode >= http.StatusInternalServerError {
		status = "error"
	}
	RespondJSON(w, ErrorResponse{Status: status, Error: message, Code: code}, statusCode)
}

// RespondError is the single place where failures become HTTP responses.
// Typed errors are rendered with their own message and code; anything else is
// logged and reported as a generic internal error.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Error("unhandled error", "error", err.Error())
		RespondErrorWithCode(w, "something went wrong", CodeInternalError, http.StatusInternalServerError)
		return
	}

	status := StatusForKind(appErr.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", appErr.Code, "error", err.Error())
	} else {
		logger.Warn("request rejected", "code", appErr.Code, "reason", err.Error())
	}

	RespondErrorWithCode(w, appErr.Message, appErr.Code, status)
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidOrExpiredToken:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindTooManyRequests:
		return http.StatusTooManyRequests
	case apperr.KindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON decodes the request body into dst, reporting malformed bodies as
// validation failures.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation(CodeRequestTooLarge, "request body too large").Wrap(err)
		}
		return apperr.Validation(CodeInvalidRequestBody, "invalid request body").Wrap(err)
	}
	return nil
}
