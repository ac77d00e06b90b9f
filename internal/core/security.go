// AngelaMos | 2026
// security.go

package core

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 10
	MaxPasswordBytes  = 72
)

var ErrPasswordTooLong = fmt.Errorf(
	"password exceeds %d bytes: %w",
	MaxPasswordBytes,
	ErrInvalidInput,
)

// PasswordHasher hashes and verifies passwords with bcrypt. Salts are
// generated by bcrypt, so equal inputs never produce equal hashes.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}

	dummy, err := bcrypt.GenerateFromPassword(
		[]byte("dummy_password_for_timing_attack_prevention"),
		cost,
	)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &PasswordHasher{cost: cost, dummyHash: dummy}, nil
}

func (h *PasswordHasher) Cost() int {
	return h.cost
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// Verify returns false on mismatch and on a malformed hash.
func (h *PasswordHasher) Verify(password, encodedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	return err == nil
}

// VerifyTimingSafe compares against a dummy hash when encodedHash is nil so
// an unknown account costs as much as a wrong password.
func (h *PasswordHasher) VerifyTimingSafe(
	password string,
	encodedHash *string,
) bool {
	if encodedHash == nil || *encodedHash == "" {
		//nolint:errcheck // result discarded on purpose
		_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
		return false
	}

	return h.Verify(password, *encodedHash)
}

// NeedsRehash reports hashes produced with a different cost.
func (h *PasswordHasher) NeedsRehash(encodedHash string) bool {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

// VerifyWithRehash verifies and, on success, returns a replacement hash
// when the stored one uses an outdated cost.
func (h *PasswordHasher) VerifyWithRehash(
	password string,
	encodedHash *string,
) (bool, string) {
	if !h.VerifyTimingSafe(password, encodedHash) {
		return false, ""
	}

	if !h.NeedsRehash(*encodedHash) {
		return true, ""
	}

	newHash, err := h.Hash(password)
	if err != nil {
		return true, ""
	}

	return true, newHash
}
