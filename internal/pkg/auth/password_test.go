package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, h.Check(hash, "correct horse"))
	assert.False(t, h.Check(hash, "wrong horse"))
	assert.False(t, h.Check("not-a-hash", "correct horse"))
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("same")
	require.NoError(t, err)
	second, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNewPasswordHasher_CostOutOfRange(t *testing.T) {
	assert.Equal(t, BcryptCost, NewPasswordHasher(0).Cost)
	assert.Equal(t, BcryptCost, NewPasswordHasher(bcrypt.MaxCost+1).Cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(bcrypt.MinCost).Cost)
}
