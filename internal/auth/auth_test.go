package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokensRoundTrip(t *testing.T) {
	issued := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	tokens, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	tokens = tokens.WithClock(func() time.Time { return issued })

	tok, exp, err := tokens.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour), exp)
	assert.Equal(t, 2, strings.Count(tok, "."))

	sub, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokensRejectExpiredAndForeign(t *testing.T) {
	issued := time.Date(2025, 10, 17, 9, 0, 0, 0, time.UTC)
	tokens, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	tok, _, err := tokens.WithClock(func() time.Time { return issued }).Issue("user-1")
	require.NoError(t, err)

	late := tokens.WithClock(func() time.Time { return issued.Add(2 * time.Hour) })
	_, err = late.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokens("other-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.WithClock(func() time.Time { return issued }).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensRejectUnsignedAlgorithm(t *testing.T) {
	tokens, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokensValidates(t *testing.T) {
	_, err := NewTokens("", time.Hour)
	assert.Error(t, err)
	_, err = NewTokens("s", 0)
	assert.Error(t, err)
}

func TestHasher(t *testing.T) {
	h := Hasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.NoError(t, h.Compare(hash, "secret1"))
	assert.True(t, errors.Is(h.Compare(hash, "wrong"), ErrPasswordMismatch))
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserIDFrom(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFrom(WithUserID(context.Background(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}
