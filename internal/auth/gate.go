package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// ErrAccessDenied is returned by Gate.Unlock for a wrong secret.
var ErrAccessDenied = errors.New("access denied")

// MinSecretLength is the shortest admin secret accepted at startup, in characters.
const MinSecretLength = 12

// bcrypt ignores input beyond 72 bytes.
const maxSecretLength = 72

// ValidateSecret checks that the configured admin secret is usable.
func ValidateSecret(secret string) error {
	if utf8.RuneCountInString(secret) < MinSecretLength {
		return fmt.Errorf("admin secret must be at least %d characters", MinSecretLength)
	}
	if len(secret) > maxSecretLength {
		return fmt.Errorf("admin secret must be at most %d bytes", maxSecretLength)
	}
	return nil
}

// Gate guards the admin area with a single shared secret. Only the bcrypt
// hash of the secret is kept in memory.
type Gate struct {
	hash []byte
}

// NewGate validates secret and hashes it.
func NewGate(secret string) (*Gate, error) {
	if err := ValidateSecret(secret); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin secret: %w", err)
	}
	return &Gate{hash: hash}, nil
}

// Unlock checks input against the admin secret.
func (g *Gate) Unlock(input string) error {
	if input == "" || len(input) > maxSecretLength {
		return ErrAccessDenied
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(input)); err != nil {
		return ErrAccessDenied
	}
	return nil
}
