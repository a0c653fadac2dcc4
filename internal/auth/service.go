package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/minh-le0205/tour-rest-api/internal/logging"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

// Service handles authentication business logic
type Service struct {
	users    UserStore
	tokens   TokenService
	resets   *ResetTokenService
	hasher   *PasswordHasher
	delivery Delivery
	welcome  WelcomeSender
	events   EventRecorder
	logger   *logging.Logger
	now      func() time.Time

	// unknown-email resets wait about as long as real ones
	forgotPad latencyPad
	wait      func(ctx context.Context, d time.Duration) error
}

// welcomeTimeout bounds the background welcome email, which outlives the
// signup request.
const welcomeTimeout = 30 * time.Second

type Option func(*Service)

// WithClock replaces time.Now for password-change timestamps and reset
// expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithWelcomeSender(w WelcomeSender) Option {
	return func(s *Service) { s.welcome = w }
}

func WithEventRecorder(r EventRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.events = r
		}
	}
}

func NewService(
	users UserStore,
	tokens TokenService,
	resets *ResetTokenService,
	hasher *PasswordHasher,
	delivery Delivery,
	logger *logging.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		resets:   resets,
		hasher:   hasher,
		delivery: delivery,
		events:   noopRecorder{},
		logger:   logger,
		now:      time.Now,
		wait:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthResult is a user together with a freshly issued identity token.
type AuthResult struct {
	User  *user.User
	Token string
}

type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	// Role may only name the lowest privilege.
	Role *user.Role
}

// SignUp creates a user account with the lowest role and logs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	if in.Role != nil && *in.Role != user.RoleUser {
		s.events.AuthEvent("signup", "failure")
		return nil, ErrRoleNotAllowed
	}

	created, err := s.createAccount(ctx, user.NewAccount{
		Name:            in.Name,
		Email:           in.Email,
		Password:        in.Password,
		PasswordConfirm: in.PasswordConfirm,
		Role:            user.RoleUser,
	})
	if err != nil {
		s.events.AuthEvent("signup", "failure")
		return nil, err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.welcome != nil {
		// Send welcome email in a goroutine (non-blocking)
		go func(name, email string) {
			ctx, cancel := context.WithTimeout(context.Background(), welcomeTimeout)
			defer cancel()
			if err := s.welcome.SendWelcome(ctx, name, email); err != nil {
				s.logger.Warn("failed to send welcome email", "user_id", created.ID.String(), "error", err)
			}
		}(created.Name, created.Email)
	}

	s.events.AuthEvent("signup", "success")
	return &AuthResult{User: created, Token: token}, nil
}

// CreateAccount creates an account with an explicit role. It is only
// reachable from admin routes and the CLI, never from signup.
func (s *Service) CreateAccount(ctx context.Context, in user.NewAccount) (*user.User, error) {
	if !in.Role.Valid() {
		return nil, user.ErrInvalidRole
	}
	return s.createAccount(ctx, in)
}

func (s *Service) createAccount(ctx context.Context, in user.NewAccount) (*user.User, error) {
	email, err := user.ValidateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name, err := user.ValidateName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &user.User{
		Name:         name,
		Email:        email,
		Role:         in.Role,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// Login authenticates a user and returns a token. Unknown emails and wrong
// passwords fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if user.NormalizeEmail(email) == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			s.events.AuthEvent("login", "failure")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, existing.PasswordHash) {
		s.events.AuthEvent("login", "failure")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.events.AuthEvent("login", "success")
	return &AuthResult{User: existing, Token: token}, nil
}

// ForgotPassword issues a reset token and delivers it. It returns nil for
// unknown emails so callers cannot tell accounts apart. If delivery fails
// the stored token is cleared again.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if user.NormalizeEmail(email) == "" {
		return user.ErrEmailRequired
	}
	start := s.now()

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.events.AuthEvent("forgot_password", "unknown_email")
			s.padUnknown(ctx)
			return nil
		}
		return fmt.Errorf("failed to get user for password reset: %w", err)
	}

	reset, err := s.resets.Issue()
	if err != nil {
		return err
	}

	_, err = s.users.Update(ctx, existing.ID, user.Patch{
		ResetTokenHash:      &reset.Hash,
		ResetTokenExpiresAt: &reset.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// deactivated between lookup and write
			s.padUnknown(ctx)
			return nil
		}
		return fmt.Errorf("failed to store password reset token: %w", err)
	}

	if err := s.delivery.SendResetInstructions(ctx, existing.Email, reset.Plaintext); err != nil {
		_, clearErr := s.users.Update(ctx, existing.ID, user.Patch{
			ClearResetToken:  true,
			IfResetTokenHash: &reset.Hash,
		})
		if clearErr != nil && !errors.Is(clearErr, user.ErrNotFound) {
			s.logger.Error("failed to clear reset token after delivery failure",
				"user_id", existing.ID.String(), "error", clearErr)
		}
		s.events.AuthEvent("forgot_password", "delivery_failed")
		return ErrDeliveryFailed.Wrap(err)
	}

	s.forgotPad.observe(s.now().Sub(start))
	s.events.AuthEvent("forgot_password", "sent")
	return nil
}

func (s *Service) padUnknown(ctx context.Context) {
	if d := s.forgotPad.current(); d > 0 {
		_ = s.wait(ctx, d)
	}
}

// maxForgotPad caps the padding so a slow relay cannot stall every
// unknown-email request.
const maxForgotPad = 5 * time.Second

// latencyPad keeps a moving average of successful reset durations.
type latencyPad struct {
	mu  sync.Mutex
	avg time.Duration
}

func (p *latencyPad) observe(d time.Duration) {
	d = min(max(d, 0), maxForgotPad)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.avg == 0 {
		p.avg = d
		return
	}
	p.avg += (d - p.avg) / 8
}

func (p *latencyPad) current() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.avg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ResetPassword consumes a reset token, sets the new password and logs the
// user in. A token can succeed at most once.
func (s *Service) ResetPassword(ctx context.Context, plaintext, password, passwordConfirm string) (*AuthResult, error) {
	if plaintext == "" {
		return nil, ErrInvalidResetToken
	}

	tokenHash := s.resets.Hash(plaintext)
	existing, err := s.users.FindByResetTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.events.AuthEvent("reset_password", "failure")
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to find user by reset token: %w", err)
	}

	now := s.now()
	if !existing.ResetTokenValid(now) {
		s.events.AuthEvent("reset_password", "failure")
		return nil, ErrInvalidResetToken
	}

	if err := validatePassword(password, passwordConfirm); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	updated, err := s.users.Update(ctx, existing.ID, user.Patch{
		PasswordHash:      &passwordHash,
		PasswordChangedAt: &now,
		ClearResetToken:   true,
		IfResetTokenHash:  &tokenHash,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.events.AuthEvent("reset_password", "failure")
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	token, err := s.tokens.Issue(updated.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.events.AuthEvent("reset_password", "success")
	return &AuthResult{User: updated, Token: token}, nil
}

// UpdatePassword changes the password of an authenticated user after
// checking the current one, and issues a fresh token.
func (s *Service) UpdatePassword(ctx context.Context, identity *user.User, current, password, passwordConfirm string) (*AuthResult, error) {
	if identity == nil {
		return nil, ErrMissingToken
	}

	if !s.hasher.Verify(current, identity.PasswordHash) {
		s.events.AuthEvent("update_password", "failure")
		return nil, ErrWrongPassword
	}

	if err := validatePassword(password, passwordConfirm); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	updated, err := s.users.Update(ctx, identity.ID, user.Patch{
		PasswordHash:      &passwordHash,
		PasswordChangedAt: &now,
		IfPasswordHash:    &identity.PasswordHash,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// password changed concurrently or account gone
			s.events.AuthEvent("update_password", "failure")
			return nil, ErrWrongPassword
		}
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	token, err := s.tokens.Issue(updated.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.events.AuthEvent("update_password", "success")
	return &AuthResult{User: updated, Token: token}, nil
}

// ProfileUpdate is a self-service change request. The Has* flags record
// whether the request carried fields that are not allowed here.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Photo *string

	HasPassword bool
	HasRole     bool
}

// UpdateMe changes name, email or photo of the authenticated user.
func (s *Service) UpdateMe(ctx context.Context, identity *user.User, in ProfileUpdate) (*user.User, error) {
	if identity == nil {
		return nil, ErrMissingToken
	}
	if in.HasPassword {
		return nil, ErrPasswordNotAllowed
	}
	if in.HasRole {
		return nil, ErrRoleUpdateDenied
	}

	var patch user.Patch
	if in.Name != nil {
		name, err := user.ValidateName(*in.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email, err := user.ValidateEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if in.Photo != nil {
		photo, err := user.ValidatePhoto(*in.Photo)
		if err != nil {
			return nil, err
		}
		patch.Photo = &photo
	}

	if patch.Empty() {
		return identity, nil
	}

	updated, err := s.users.Update(ctx, identity.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		case errors.Is(err, user.ErrNotFound):
			return nil, ErrIdentityGone
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// DeleteMe deactivates the authenticated user. The record is kept.
func (s *Service) DeleteMe(ctx context.Context, identity *user.User) error {
	if identity == nil {
		return ErrMissingToken
	}

	_, err := s.users.Update(ctx, identity.ID, user.Patch{Active: user.Ptr(false)})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrIdentityGone
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.events.AuthEvent("delete_me", "success")
	return nil
}

// GetMe returns the identity resolved by the authentication gate.
func (s *Service) GetMe(identity *user.User) (*user.User, error) {
	if identity == nil {
		return nil, ErrMissingToken
	}
	return identity, nil
}

func validatePassword(password, confirm string) error {
	switch n := utf8.RuneCountInString(password); {
	case n == 0:
		return ErrPasswordRequired
	case n < minPasswordLen:
		return ErrPasswordTooShort
	case n > maxPasswordLen:
		return ErrPasswordTooLong
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
