package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3nh4-forte", 4)
	require.NoError(t, err)
	require.NotEqual(t, "s3nh4-forte", hash)

	assert.True(t, VerifyPassword(hash, "s3nh4-forte"))
	assert.False(t, VerifyPassword(hash, "senha-errada"))
}

func TestPasswordCostOutOfRangeFallsBack(t *testing.T) {
	for _, cost := range []int{0, -1, 99} {
		hash, err := HashPassword("s3nh4-forte", cost)
		require.NoError(t, err)

		got, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, got)
	}
}
