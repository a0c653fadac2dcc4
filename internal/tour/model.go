package tour

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
)

type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

const (
	MinNameLen     = 10
	MaxNameLen     = 40
	MaxSummaryLen  = 500
	DefaultRating  = 4.5
	maxDescription = 10000
)

var (
	ErrNotFound      = apperr.NotFound(httputil.CodeTourNotFound, "no tour found with that id")
	ErrDuplicateName = apperr.Validation(httputil.CodeDuplicateTour, "a tour with that name already exists")
)

func invalid(msg string) *apperr.Error {
	return apperr.Validation(httputil.CodeInvalidTour, msg)
}

type Tour struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Summary         string     `json:"summary"`
	Description     string     `json:"description"`
	DurationDays    int        `json:"duration_days"`
	MaxGroupSize    int        `json:"max_group_size"`
	Difficulty      Difficulty `json:"difficulty"`
	PriceCents      int64      `json:"price_cents"`
	RatingsAverage  float64    `json:"ratings_average"`
	RatingsQuantity int        `json:"ratings_quantity"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Input holds the writable fields of a tour. Nil fields are left alone on
// update and required on create.
type Input struct {
	Name         *string     `json:"name,omitempty"`
	Summary      *string     `json:"summary,omitempty"`
	Description  *string     `json:"description,omitempty"`
	DurationDays *int        `json:"duration_days,omitempty"`
	MaxGroupSize *int        `json:"max_group_size,omitempty"`
	Difficulty   *Difficulty `json:"difficulty,omitempty"`
	PriceCents   *int64      `json:"price_cents,omitempty"`
}

// ValidateCreate checks that every required field is present and valid.
func (in Input) ValidateCreate() error {
	switch {
	case in.Name == nil:
		return invalid("a tour must have a name")
	case in.DurationDays == nil:
		return invalid("a tour must have a duration")
	case in.MaxGroupSize == nil:
		return invalid("a tour must have a group size")
	case in.Difficulty == nil:
		return invalid("a tour must have a difficulty")
	case in.PriceCents == nil:
		return invalid("a tour must have a price")
	}
	return in.Validate()
}

// Validate checks the fields that are present.
func (in Input) Validate() error {
	if in.Name != nil {
		n := utf8.RuneCountInString(strings.TrimSpace(*in.Name))
		if n < MinNameLen || n > MaxNameLen {
			return invalid("a tour name must have between 10 and 40 characters")
		}
	}
	if in.Summary != nil && utf8.RuneCountInString(*in.Summary) > MaxSummaryLen {
		return invalid("a tour summary must have at most 500 characters")
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > maxDescription {
		return invalid("a tour description is too long")
	}
	if in.DurationDays != nil && *in.DurationDays <= 0 {
		return invalid("duration must be positive")
	}
	if in.MaxGroupSize != nil && *in.MaxGroupSize <= 0 {
		return invalid("group size must be positive")
	}
	if in.Difficulty != nil && !in.Difficulty.Valid() {
		return invalid("difficulty is either: easy, medium, difficult")
	}
	if in.PriceCents != nil && *in.PriceCents < 0 {
		return invalid("price must not be negative")
	}
	return nil
}

func (in Input) Empty() bool {
	return in == Input{}
}

// Apply copies the present fields onto t.
func (in Input) Apply(t *Tour) {
	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Summary != nil {
		t.Summary = strings.TrimSpace(*in.Summary)
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.DurationDays != nil {
		t.DurationDays = *in.DurationDays
	}
	if in.MaxGroupSize != nil {
		t.MaxGroupSize = *in.MaxGroupSize
	}
	if in.Difficulty != nil {
		t.Difficulty = *in.Difficulty
	}
	if in.PriceCents != nil {
		t.PriceCents = *in.PriceCents
	}
}
