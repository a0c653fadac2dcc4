package user

import (
	"errors"
	"time"
)

var ErrInvalidPatch = errors.New("invalid user patch")

// Patch is a partial update applied atomically to one active user. Nil
// fields are left untouched.
type Patch struct {
	Name              *string
	Email             *string
	Photo             *string
	Role              *Role
	PasswordHash      *string
	PasswordChangedAt *time.Time
	Active            *bool

	// ResetTokenHash and ResetTokenExpiresAt are written as a pair.
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	ClearResetToken     bool

	// Preconditions. When set the update only applies if the stored value
	// still matches, otherwise Update reports ErrNotFound.
	IfResetTokenHash *string
	IfPasswordHash   *string
}

func (p Patch) Validate() error {
	if (p.ResetTokenHash == nil) != (p.ResetTokenExpiresAt == nil) {
		return errors.Join(ErrInvalidPatch, errors.New("reset token hash and expiry must be set together"))
	}
	if p.ClearResetToken && p.ResetTokenHash != nil {
		return errors.Join(ErrInvalidPatch, errors.New("cannot set and clear the reset token"))
	}
	if p.Role != nil && !p.Role.Valid() {
		return errors.Join(ErrInvalidPatch, ErrUnknownRole)
	}
	return nil
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Photo == nil && p.Role == nil &&
		p.PasswordHash == nil && p.PasswordChangedAt == nil && p.Active == nil &&
		p.ResetTokenHash == nil && !p.ClearResetToken
}

// Apply copies the patch onto u. Preconditions are not checked here.
func (p Patch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Photo != nil {
		u.Photo = *p.Photo
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.PasswordChangedAt != nil {
		t := *p.PasswordChangedAt
		u.PasswordChangedAt = &t
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
	if p.ResetTokenHash != nil {
		h, exp := *p.ResetTokenHash, *p.ResetTokenExpiresAt
		u.ResetTokenHash, u.ResetTokenExpiresAt = &h, &exp
	}
	if p.ClearResetToken {
		u.ResetTokenHash, u.ResetTokenExpiresAt = nil, nil
	}
}

// Ptr is a helper for building patches.
func Ptr[T any](v T) *T {
	return &v
}
