// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	passwords := []string{"secret1", "contraseña-larga", "a b c d e f", "123456"}
	for _, pw := range passwords {
		hash, err := h.Hash(pw)
		require.NoError(t, err)

		assert.True(t, h.Verify(pw, hash), "password %q", pw)
		assert.False(t, h.Verify(pw+"x", hash))
		assert.False(t, h.Verify(strings.ToUpper(pw)+"!", hash))
	}
}

func TestHashIsSalted(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("secret1")
	require.NoError(t, err)
	second, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHashRejectsLongPassword(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	require.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t)

	assert.False(t, h.Verify("secret1", ""))
	assert.False(t, h.Verify("secret1", "not-a-bcrypt-hash"))
}

func TestVerifyTimingSafeWithoutHash(t *testing.T) {
	h := newTestHasher(t)

	assert.False(t, h.VerifyTimingSafe("secret1", nil))
	empty := ""
	assert.False(t, h.VerifyTimingSafe("secret1", &empty))
}

func TestVerifyWithRehash(t *testing.T) {
	old, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	current, err := NewPasswordHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)

	hash, err := old.Hash("secret1")
	require.NoError(t, err)

	ok, newHash := current.VerifyWithRehash("secret1", &hash)
	require.True(t, ok)
	require.NotEmpty(t, newHash)
	assert.False(t, current.NeedsRehash(newHash))
	assert.True(t, current.Verify("secret1", newHash))

	ok, newHash = current.VerifyWithRehash("wrong", &hash)
	assert.False(t, ok)
	assert.Empty(t, newHash)

	ok, newHash = old.VerifyWithRehash("secret1", &hash)
	assert.True(t, ok)
	assert.Empty(t, newHash)
}

func TestNewPasswordHasherCost(t *testing.T) {
	h, err := NewPasswordHasher(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, h.Cost())

	_, err = NewPasswordHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}
