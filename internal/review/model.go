package review

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
)

const (
	MinRating  = 1
	MaxRating  = 5
	MaxBodyLen = 2000
)

var (
	ErrNotFound     = apperr.NotFound(httputil.CodeReviewNotFound, "no review found with that id")
	ErrDuplicate    = apperr.Validation(httputil.CodeDuplicateReview, "you have already reviewed this tour")
	ErrTourNotFound = apperr.NotFound(httputil.CodeTourNotFound, "no tour found with that id")
)

func invalid(msg string) *apperr.Error {
	return apperr.Validation(httputil.CodeInvalidReview, msg)
}

type Review struct {
	ID        uuid.UUID `json:"id"`
	TourID    uuid.UUID `json:"tour_id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"review"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Input is the body of a new review. The author always comes from the
// authenticated identity.
type Input struct {
	TourID uuid.UUID `json:"tour_id"`
	Body   string    `json:"review"`
	Rating int       `json:"rating"`
}

func (in Input) Validate() error {
	if in.TourID == uuid.Nil {
		return invalid("a review must belong to a tour")
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return invalid("review can not be empty")
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return invalid("review must have at most 2000 characters")
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return invalid("rating must be between 1 and 5")
	}
	return nil
}
