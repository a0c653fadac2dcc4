package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	resetTokenBytes     = 32
	minResetTokenKeyLen = 32
)

// ResetToken is a freshly issued password reset credential. Plaintext goes
// to the user once; only Hash is stored.
type ResetToken struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// ResetTokenService derives one-time reset tokens and their keyed digests.
type ResetTokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewResetTokenService(key []byte, ttl time.Duration, opts ...TokenOption) (*ResetTokenService, error) {
	if len(key) < minResetTokenKeyLen {
		return nil, fmt.Errorf("reset token key must be at least %d bytes, got %d", minResetTokenKeyLen, len(key))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("reset token ttl must be positive, got %s", ttl)
	}

	o := applyTokenOptions(opts)
	return &ResetTokenService{key: key, ttl: ttl, now: o.now}, nil
}

func (s *ResetTokenService) Issue() (ResetToken, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return ResetToken{}, fmt.Errorf("failed to generate reset token: %w", err)
	}

	plaintext := base64.RawURLEncoding.EncodeToString(b)
	return ResetToken{
		Plaintext: plaintext,
		Hash:      s.Hash(plaintext),
		ExpiresAt: s.now().Add(s.ttl),
	}, nil
}

// Hash returns the HMAC-SHA256 digest used to look a candidate token up.
func (s *ResetTokenService) Hash(plaintext string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}
