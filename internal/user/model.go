package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Photo               string     `json:"photo"`
	Role                Role       `json:"role"`
	PasswordHash        string     `json:"-"` // Never expose password hash in JSON
	PasswordChangedAt   *time.Time `json:"-"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	Active              bool       `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Profile is the outward view of a user.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Photo:     u.Photo,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ResetTokenValid reports whether u holds an unexpired reset token at now.
func (u *User) ResetTokenValid(now time.Time) bool {
	return u.ResetTokenHash != nil && u.ResetTokenExpiresAt != nil && now.Before(*u.ResetTokenExpiresAt)
}

const DefaultPhoto = "default.jpg"
