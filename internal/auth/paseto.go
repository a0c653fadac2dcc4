package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// TokenOption configures token services.
type TokenOption func(*tokenOptions)

type tokenOptions struct {
	now func() time.Time
}

// WithTokenClock replaces time.Now for issuing and expiry checks.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(o *tokenOptions) { o.now = now }
}

func applyTokenOptions(opts []TokenOption) tokenOptions {
	o := tokenOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
	now          func() time.Time
}

func NewPasetoService(symmetricKey []byte, ttl time.Duration, opts ...TokenOption) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	o := applyTokenOptions(opts)
	return &PasetoService{
		symmetricKey: key,
		ttl:          ttl,
		now:          o.now,
	}, nil
}

// Issue generates a new PASETO v4.local token for subjectID
func (s *PasetoService) Issue(subjectID uuid.UUID) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.ttl))
	token.SetSubject(subjectID.String())

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts a PASETO v4.local token and returns its claims. Expiry is
// checked against the service clock rather than the parser's.
func (s *PasetoService) Verify(tokenStr string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	subject, err := token.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}
	subjectID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	if !s.now().Before(expiresAt) {
		return nil, ErrExpiredToken
	}

	return &Claims{
		SubjectID: subjectID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
