package auth

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minh-le0205/tour-rest-api/internal/logging"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

var (
	testTokenKey = []byte("0123456789abcdef0123456789abcdef")
	testResetKey = []byte("reset-key-reset-key-reset-key-32")
)

func testArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLen: 16, SaltLen: 8}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentReset struct {
	email string
	token string
}

type fakeDelivery struct {
	mu     sync.Mutex
	sent   []sentReset
	err    error
	onSend func()
}

func (d *fakeDelivery) SendResetInstructions(_ context.Context, email, token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.onSend != nil {
		d.onSend()
	}
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, sentReset{email: email, token: token})
	return nil
}

func (d *fakeDelivery) last(t *testing.T) sentReset {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.sent, "no reset instructions were sent")
	return d.sent[len(d.sent)-1]
}

type recordedEvents struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *recordedEvents) AuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[event+"/"+outcome]++
}

func (r *recordedEvents) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

// failingStore lets a test force errors out of an otherwise working store.
type failingStore struct {
	*user.MemoryStore
	findErr error
}

func (s *failingStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.MemoryStore.FindByEmail(ctx, email)
}

var errStoreDown = errors.New("connection refused")

type testEnv struct {
	clock    *fakeClock
	store    *user.MemoryStore
	tokens   *PasetoService
	delivery *fakeDelivery
	events   *recordedEvents
	service  *Service
	gate     *Middleware
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := newFakeClock()
	store := user.NewMemoryStore()
	store.SetClock(clock.Now)

	tokens, err := NewPasetoService(testTokenKey, time.Hour, WithTokenClock(clock.Now))
	require.NoError(t, err)
	resets, err := NewResetTokenService(testResetKey, 10*time.Minute, WithTokenClock(clock.Now))
	require.NoError(t, err)
	hasher, err := NewPasswordHasher(testArgon2Params())
	require.NoError(t, err)

	delivery := &fakeDelivery{}
	events := &recordedEvents{}
	logger := logging.NewLoggerWithWriter(io.Discard, true)

	service := NewService(store, tokens, resets, hasher, delivery, logger,
		WithClock(clock.Now),
		WithEventRecorder(events),
	)

	return &testEnv{
		clock:    clock,
		store:    store,
		tokens:   tokens,
		delivery: delivery,
		events:   events,
		service:  service,
		gate:     NewMiddleware(tokens, store, events),
	}
}

func (e *testEnv) signUp(t *testing.T, email string) *AuthResult {
	t.Helper()
	result, err := e.service.SignUp(context.Background(), SignUpInput{
		Name:            "Test User",
		Email:           email,
		Password:        "Secret123",
		PasswordConfirm: "Secret123",
	})
	require.NoError(t, err)
	return result
}

func (e *testEnv) promote(t *testing.T, result *AuthResult, role user.Role) {
	t.Helper()
	_, err := e.store.Update(context.Background(), result.User.ID, user.Patch{Role: &role})
	require.NoError(t, err)
}
