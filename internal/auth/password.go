package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the argon2id cost settings.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

// DefaultArgon2Params - Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:      3,
		MemoryKiB: 64 * 1024,
		Threads:   4,
		KeyLen:    32,
		SaltLen:   16,
	}
}

func (p Argon2Params) validate() error {
	switch {
	case p.Time == 0:
		return fmt.Errorf("argon2 time must be positive")
	case p.MemoryKiB < 8*uint32(p.Threads):
		return fmt.Errorf("argon2 memory must be at least 8KiB per thread")
	case p.Threads == 0:
		return fmt.Errorf("argon2 threads must be positive")
	case p.KeyLen < 16:
		return fmt.Errorf("argon2 key length must be at least 16 bytes")
	case p.SaltLen < 8:
		return fmt.Errorf("argon2 salt length must be at least 8 bytes")
	}
	return nil
}

// PasswordHasher hashes passwords with argon2id and a random salt per call.
type PasswordHasher struct {
	params Argon2Params
	// dummyHash is verified against for unknown accounts so login takes the
	// same time either way.
	dummyHash string
}

func NewPasswordHasher(params Argon2Params) (*PasswordHasher, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	h := &PasswordHasher{params: params}
	dummy, err := h.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	h.dummyHash = dummy
	return h, nil
}

// Hash creates an argon2id hash of the password
// Encoded as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.MemoryKiB,
		h.params.Threads,
		h.params.KeyLen,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify checks if a password matches the stored hash. Malformed hashes
// never match.
func (h *PasswordHasher) Verify(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	if memory == 0 || iterations == 0 || threads == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(decodedHash) == 0 {
		return false
	}

	inputHash := argon2.IDKey(
		[]byte(password),
		salt,
		iterations,
		memory,
		threads,
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, inputHash) == 1
}

// VerifyDummy burns the same work as Verify against a throwaway hash.
func (h *PasswordHasher) VerifyDummy(password string) {
	h.Verify(password, h.dummyHash)
}

// ChangedAfter reports whether the password changed after a token was
// issued. Tokens carry second precision, so both sides are compared as whole
// seconds and a change within the token's own second does not revoke it.
func ChangedAfter(passwordChangedAt *time.Time, tokenIssuedAt time.Time) bool {
	if passwordChangedAt == nil {
		return false
	}
	return passwordChangedAt.Unix() > tokenIssuedAt.Unix()
}
