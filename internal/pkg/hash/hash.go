package hash

import (
	"fmt"
	"strings"
)

// Hash hashes a plaintext secret and verifies plaintext against a stored hash.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// Limited is implemented by hashers that only accept plaintexts up to a
// fixed size. Callers should reject longer input before hashing.
type Limited interface {
	MaxInputBytes() int
}

// NewPassword returns the password hasher named by algo ("bcrypt" or "argon2id").
func NewPassword(algo string, cost int, pepper string) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algo)) {
	case "", "bcrypt":
		return NewBcrypt(cost, pepper), nil
	case "argon2id":
		return NewArgon2id(pepper), nil
	default:
		return nil, fmt.Errorf("hash: unknown password algorithm %q", algo)
	}
}
