package authpassword

import (
	"fmt"

	"github.com/alexedwards/argon2id"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

type argonHasher struct {
	params *argon2id.Params
}

// NewArgon2idHasher returns a hasher using the library's default parameters.
func NewArgon2idHasher() Hasher {
	return &argonHasher{params: argon2id.DefaultParams}
}

// NewArgon2idHasherWithParams allows cheaper parameters in tests.
func NewArgon2idHasherWithParams(params *argon2id.Params) Hasher {
	return &argonHasher{params: params}
}

func (h *argonHasher) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func (h *argonHasher) Verify(password, encodedHash string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	if err != nil {
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
	return match, nil
}
