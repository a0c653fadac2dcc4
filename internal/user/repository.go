package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/minh-le0205/tour-rest-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// ListOptions pages through active users, newest first.
type ListOptions struct {
	Limit  int
	Offset int
	Role   *Role
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Repository handles user data persistence. Every lookup ignores
// deactivated users.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new active user. A zero ID is replaced with a fresh one.
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = NormalizeEmail(u.Email)
	u.Active = true
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}

	dbUser, err := mapModelToDBUser(u)
	if err != nil {
		return nil, err
	}

	_, err = r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser)
}

// FindByID retrieves an active user by ID
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findOne(ctx, "find user by id", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
}

// FindByEmail retrieves an active user by email, case-insensitively
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "find user by email", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("lower(email) = ?", NormalizeEmail(email))
	})
}

// FindByResetTokenHash retrieves the active user holding the given reset
// token digest. Expiry is left to the caller.
func (r *Repository) FindByResetTokenHash(ctx context.Context, hash string) (*User, error) {
	return r.findOne(ctx, "find user by reset token", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("reset_token_hash = ?", hash)
	})
}

func (r *Repository) findOne(ctx context.Context, op string, filter func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	dbUser := new(database.User)
	err := filter(r.db.NewSelect().Model(dbUser)).
		Where("active = ?", true).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return mapDBUserToModel(dbUser)
}

// Update applies p to the active user id in one statement and returns the
// updated record. Unmet preconditions report ErrNotFound.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Patch) (*User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Empty() {
		return r.FindByID(ctx, id)
	}

	dbUser := new(database.User)
	q := r.db.NewUpdate().
		Model(dbUser).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Where("active = ?", true)

	if p.Name != nil {
		q = q.Set("name = ?", *p.Name)
	}
	if p.Email != nil {
		q = q.Set("email = ?", NormalizeEmail(*p.Email))
	}
	if p.Photo != nil {
		q = q.Set("photo = ?", *p.Photo)
	}
	if p.Role != nil {
		q = q.Set("role = ?", p.Role.String())
	}
	if p.PasswordHash != nil {
		q = q.Set("password_hash = ?", *p.PasswordHash)
	}
	if p.PasswordChangedAt != nil {
		q = q.Set("password_changed_at = ?", *p.PasswordChangedAt)
	}
	if p.Active != nil {
		q = q.Set("active = ?", *p.Active)
	}
	if p.ResetTokenHash != nil {
		q = q.Set("reset_token_hash = ?", *p.ResetTokenHash).
			Set("reset_token_expires_at = ?", *p.ResetTokenExpiresAt)
	}
	if p.ClearResetToken {
		q = q.Set("reset_token_hash = NULL").
			Set("reset_token_expires_at = NULL")
	}
	if p.IfResetTokenHash != nil {
		q = q.Where("reset_token_hash = ?", *p.IfResetTokenHash)
	}
	if p.IfPasswordHash != nil {
		q = q.Where("password_hash = ?", *p.IfPasswordHash)
	}

	err := q.Returning("*").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return mapDBUserToModel(dbUser)
}

// List returns active users ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, opts ListOptions) ([]*User, error) {
	opts = opts.normalized()

	var rows []database.User
	q := r.db.NewSelect().
		Model(&rows).
		Where("active = ?", true)
	if opts.Role != nil {
		q = q.Where("role = ?", opts.Role.String())
	}

	err := q.OrderExpr("created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(rows))
	for i := range rows {
		u, err := mapDBUserToModel(&rows[i])
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) (*User, error) {
	role, err := ParseRole(dbu.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", dbu.ID, err)
	}
	return &User{
		ID:                  dbu.ID,
		Name:                dbu.Name,
		Email:               dbu.Email,
		Photo:               dbu.Photo,
		Role:                role,
		PasswordHash:        dbu.PasswordHash,
		PasswordChangedAt:   dbu.PasswordChangedAt,
		ResetTokenHash:      dbu.ResetTokenHash,
		ResetTokenExpiresAt: dbu.ResetTokenExpiresAt,
		Active:              dbu.Active,
		CreatedAt:           dbu.CreatedAt,
		UpdatedAt:           dbu.UpdatedAt,
	}, nil
}

func mapModelToDBUser(u *User) (*database.User, error) {
	if !u.Role.Valid() {
		return nil, ErrUnknownRole
	}
	return &database.User{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		Photo:               u.Photo,
		Role:                u.Role.String(),
		PasswordHash:        u.PasswordHash,
		PasswordChangedAt:   u.PasswordChangedAt,
		ResetTokenHash:      u.ResetTokenHash,
		ResetTokenExpiresAt: u.ResetTokenExpiresAt,
		Active:              u.Active,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}, nil
}
