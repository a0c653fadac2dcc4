package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model for the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                  uuid.UUID  `bun:"id,pk,type:uuid"`
	Name                string     `bun:"name,notnull"`
	Email               string     `bun:"email,notnull"`
	Photo               string     `bun:"photo,notnull"`
	Role                string     `bun:"role,notnull"`
	PasswordHash        string     `bun:"password_hash,notnull"`
	PasswordChangedAt   *time.Time `bun:"password_changed_at"`
	ResetTokenHash      *string    `bun:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `bun:"reset_token_expires_at"`
	Active              bool       `bun:"active,notnull"`
	CreatedAt           time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt           time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

type Tour struct {
	bun.BaseModel `bun:"table:tours,alias:t"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	Name            string    `bun:"name,notnull"`
	Summary         string    `bun:"summary,notnull"`
	Description     string    `bun:"description,notnull"`
	DurationDays    int       `bun:"duration_days,notnull"`
	MaxGroupSize    int       `bun:"max_group_size,notnull"`
	Difficulty      string    `bun:"difficulty,notnull"`
	PriceCents      int64     `bun:"price_cents,notnull"`
	RatingsAverage  float64   `bun:"ratings_average,notnull,default:4.5"`
	RatingsQuantity int       `bun:"ratings_quantity,notnull,default:0"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:r"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	TourID    uuid.UUID `bun:"tour_id,type:uuid,notnull"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Body      string    `bun:"body,notnull"`
	Rating    int       `bun:"rating,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
