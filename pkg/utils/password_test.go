package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordManager(t *testing.T) {
	pm := NewPasswordManager().WithCost(bcrypt.MinCost)

	hash, err := pm.HashPassword("correct horse 1")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse 1", hash)
	assert.NoError(t, pm.ComparePassword(hash, "correct horse 1"))
	assert.Error(t, pm.ComparePassword(hash, "wrong horse 1"))

	for _, weak := range []string{"short1", "onlyletters", "1234567890"} {
		_, err := pm.HashPassword(weak)
		assert.ErrorIs(t, err, ErrWeakPassword, weak)
	}
}

func TestGenerateURLToken(t *testing.T) {
	a, err := GenerateURLToken(12)
	require.NoError(t, err)
	b, err := GenerateURLToken(12)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
}
