package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/natours/internal/apperror"
)

func fixedIssuer(secret string, expiresIn time.Duration, at time.Time) *Issuer {
	i := NewIssuer(secret, expiresIn)
	i.now = func() time.Time { return at }
	return i
}

func TestIssuer_RoundTrip(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	issuer := fixedIssuer("secret", time.Hour, at)

	token, err := issuer.CreateToken("5c88fa8cf4afda39709c2955")
	require.NoError(t, err)

	claims, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "5c88fa8cf4afda39709c2955", claims.ID)
	assert.Equal(t, at.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, at.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssuer_Expired(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	token, err := fixedIssuer("secret", time.Minute, at).CreateToken("u1")
	require.NoError(t, err)

	_, err = fixedIssuer("secret", time.Minute, at.Add(time.Hour)).ParseToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	assert.Equal(t, apperror.KindTokenExpired, apperror.Classify(err))
}

func TestIssuer_WrongSecret(t *testing.T) {
	at := time.Now()
	token, err := fixedIssuer("secret", time.Hour, at).CreateToken("u1")
	require.NoError(t, err)

	_, err = fixedIssuer("other", time.Hour, at).ParseToken(token)
	require.Error(t, err)
	assert.Equal(t, apperror.KindTokenInvalid, apperror.Classify(err))
}

func TestIssuer_Malformed(t *testing.T) {
	_, err := NewIssuer("secret", time.Hour).ParseToken("not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

func TestIssuer_RejectsOtherAlgorithms(t *testing.T) {
	claims := SessionClaims{ID: "u1", RegisteredClaims: jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).ParseToken(token)
	assert.Equal(t, apperror.KindTokenInvalid, apperror.Classify(err))
}

func TestResetToken(t *testing.T) {
	now := time.Now()
	rt, err := GenerateResetToken(now)
	require.NoError(t, err)

	assert.Len(t, rt.PlaintextToken, 64)
	assert.Len(t, rt.HashedToken, 64)
	assert.NotEqual(t, rt.PlaintextToken, rt.HashedToken)
	assert.Equal(t, now.Add(10*time.Minute), rt.ExpiresAt)
	assert.True(t, ValidateResetToken(rt.PlaintextToken, rt.HashedToken))
	assert.False(t, ValidateResetToken("other", rt.HashedToken))
}
