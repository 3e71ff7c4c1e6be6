package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	signed, err := NewAccessToken(testSecret, 42, 60)
	require.NoError(t, err)
	require.NotEmpty(t, signed.Token)

	claims, err := ParseToken(testSecret, signed.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, KindAccess, claims.Kind)
}

func TestRefreshTokenKind(t *testing.T) {
	signed, err := NewRefreshToken(testSecret, 7, 7)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, signed.Token)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, claims.Kind)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), signed.Exp, time.Minute)
}

func TestParseTokenWrongSecret(t *testing.T) {
	signed, err := NewAccessToken(testSecret, 1, 60)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", signed.Token)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not.a.jwt")
	assert.Error(t, err)
}

func TestOpaqueTokenIsRandom(t *testing.T) {
	a, err := NewOpaqueToken(time.Hour)
	require.NoError(t, err)
	b, err := NewOpaqueToken(time.Hour)
	require.NoError(t, err)

	assert.Len(t, a.Token, 64)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestHashTokenRawDeterministic(t *testing.T) {
	h1 := HashTokenRaw("abc")
	h2 := HashTokenRaw("abc")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashTokenRaw("abd"))
}
