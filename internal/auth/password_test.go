package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	t.Run("verify accepts the hashed password", func(t *testing.T) {
		for _, p := range []string{"secret1", "пароль", "", "a very long passphrase with spaces"} {
			hash, err := h.Hash(p)
			require.NoError(t, err)
			assert.True(t, h.Verify(p, hash), p)
		}
	})

	t.Run("verify rejects a different password", func(t *testing.T) {
		hash, err := h.Hash("secret1")
		require.NoError(t, err)
		assert.False(t, h.Verify("secret2", hash))
		assert.False(t, h.Verify("Secret1", hash))
	})

	t.Run("hashes are salted", func(t *testing.T) {
		first, err := h.Hash("same")
		require.NoError(t, err)
		second, err := h.Hash("same")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("malformed hash never verifies", func(t *testing.T) {
		assert.False(t, h.Verify("secret", "not-a-bcrypt-hash"))
	})

	t.Run("invalid cost falls back to default", func(t *testing.T) {
		assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	})
}
