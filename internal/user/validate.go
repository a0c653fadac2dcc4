package user

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
)

const (
	MaxEmailLen = 254
	MaxNameLen  = 100
	MaxPhotoLen = 255
)

var (
	ErrEmailRequired      = apperr.Validation(httputil.CodeEmailRequired, "email is required")
	ErrInvalidEmailFormat = apperr.Validation(httputil.CodeInvalidEmailFormat, "invalid email format")
	ErrNameTooLong        = apperr.Validation(httputil.CodeNameTooLong, "name must be at most 100 characters")
	ErrInvalidPhoto       = apperr.Validation(httputil.CodeInvalidPhoto, "photo must be a file name of at most 255 characters")
	ErrInvalidRole        = apperr.Validation(httputil.CodeInvalidRole, "role must be one of user, guide, lead-guide, admin")
)

// ValidateEmail checks an address and returns its normalized form.
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	if len(email) > MaxEmailLen {
		return "", ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmailFormat
	}
	return email, nil
}

func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", ErrNameTooLong
	}
	return name, nil
}

func ValidatePhoto(photo string) (string, error) {
	photo = strings.TrimSpace(photo)
	if photo == "" || len(photo) > MaxPhotoLen || strings.ContainsAny(photo, "/\\") {
		return "", ErrInvalidPhoto
	}
	return photo, nil
}

// NewAccount is the input for creating an account with an explicit role.
type NewAccount struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	Role            Role
}
