// Package secrets covers the one-way credential handling for the service:
// bcrypt hashing of user passwords and generation of random client secrets.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "realmgate/pkg/domain-errors"
)

// Hasher hashes and verifies passwords with a configurable bcrypt cost.
// The zero value is not usable; construct with NewHasher.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher. Costs outside bcrypt's supported range fall
// back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash creates a bcrypt digest of the plaintext. The plaintext is never
// logged or echoed back in errors.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "password cannot be empty")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches the bcrypt digest. A malformed
// digest verifies false rather than erroring, so callers never leak whether
// a stored hash exists or is well-formed.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// Generate creates a cryptographically secure random secret, base64-encoded.
// Used for OAuth client secrets.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
