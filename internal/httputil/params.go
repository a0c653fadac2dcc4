package httputil

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
)

var errInvalidID = apperr.Validation(CodeInvalidID, "invalid id")

// UUIDParam parses a chi route parameter as a UUID.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errInvalidID.Wrap(err)
	}
	return id, nil
}

// IntQuery reads a non-negative integer query parameter. Missing values
// read as zero.
func IntQuery(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Validation(CodeInvalidQuery, name+" must be a non-negative integer")
	}
	return n, nil
}
