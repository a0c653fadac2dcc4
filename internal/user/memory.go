package user

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe in-process store with the same semantics as
// Repository: inactive users are invisible and emails are unique among
// active users. It is a test double for the auth, user and http packages;
// cmd/api always wires Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*User
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uuid.UUID]*User),
		now:   time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !u.Role.Valid() {
		return nil, ErrUnknownRole
	}

	created := clone(u)
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.Email = NormalizeEmail(created.Email)
	created.Active = true
	if created.Photo == "" {
		created.Photo = DefaultPhoto
	}
	if m.activeEmailTaken(created.Email, uuid.Nil) {
		return nil, ErrDuplicateEmail
	}
	if _, exists := m.users[created.ID]; exists {
		return nil, ErrDuplicateEmail
	}

	now := m.now()
	created.CreatedAt, created.UpdatedAt = now, now
	m.users[created.ID] = created

	return clone(created), nil
}

func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok || !u.Active {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	return m.findFirst(func(u *User) bool {
		return u.Email == NormalizeEmail(email)
	})
}

func (m *MemoryStore) FindByResetTokenHash(_ context.Context, hash string) (*User, error) {
	return m.findFirst(func(u *User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == hash
	})
}

func (m *MemoryStore) findFirst(match func(*User) bool) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Active && match(u) {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

// Update applies p under the write lock so preconditions and the write are
// atomic.
func (m *MemoryStore) Update(_ context.Context, id uuid.UUID, p Patch) (*User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || !u.Active {
		return nil, ErrNotFound
	}
	if p.IfResetTokenHash != nil && (u.ResetTokenHash == nil || *u.ResetTokenHash != *p.IfResetTokenHash) {
		return nil, ErrNotFound
	}
	if p.IfPasswordHash != nil && u.PasswordHash != *p.IfPasswordHash {
		return nil, ErrNotFound
	}
	if p.Email != nil && m.activeEmailTaken(NormalizeEmail(*p.Email), id) {
		return nil, ErrDuplicateEmail
	}

	updated := clone(u)
	p.Apply(updated)
	updated.Email = NormalizeEmail(updated.Email)
	updated.UpdatedAt = m.now()
	m.users[id] = updated

	return clone(updated), nil
}

func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*User, error) {
	opts = opts.normalized()

	m.mu.RLock()
	matched := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		if !u.Active || (opts.Role != nil && u.Role != *opts.Role) {
			continue
		}
		matched = append(matched, clone(u))
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if opts.Offset >= len(matched) {
		return []*User{}, nil
	}
	matched = matched[opts.Offset:]
	if len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// SetClock replaces the time source used for timestamps.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *MemoryStore) activeEmailTaken(email string, except uuid.UUID) bool {
	for id, u := range m.users {
		if id != except && u.Active && u.Email == email {
			return true
		}
	}
	return false
}

func clone(u *User) *User {
	cp := *u
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		cp.PasswordChangedAt = &t
	}
	if u.ResetTokenHash != nil {
		h := *u.ResetTokenHash
		cp.ResetTokenHash = &h
	}
	if u.ResetTokenExpiresAt != nil {
		t := *u.ResetTokenExpiresAt
		cp.ResetTokenExpiresAt = &t
	}
	return &cp
}
