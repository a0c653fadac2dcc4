package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/minh-le0205/tour-rest-api/internal/user"
)

// Claims is what a verified identity token proves.
type Claims struct {
	SubjectID uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService defines the interface for token creation and validation.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	Issue(subjectID uuid.UUID) (string, error)
	// Verify fails with ErrInvalidToken or ErrExpiredToken.
	Verify(token string) (*Claims, error)
}

// UserStore is the credential store the auth core depends on. Lookups only
// see active users and report user.ErrNotFound otherwise.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*user.User, error)
	Create(ctx context.Context, u *user.User) (*user.User, error)
	Update(ctx context.Context, id uuid.UUID, p user.Patch) (*user.User, error)
}

// Delivery sends the plaintext reset token out of band.
type Delivery interface {
	SendResetInstructions(ctx context.Context, email, token string) error
}

// WelcomeSender greets new accounts. Failures never fail signup.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, name, email string) error
}

// EventRecorder counts auth outcomes, e.g. ("login", "failure").
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) AuthEvent(string, string) {}
