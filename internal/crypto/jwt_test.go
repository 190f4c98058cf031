package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewJWTManager_RejectsEmptySecret(t *testing.T) {
	_, err := NewJWTManager("")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestVerify_RoundTrip(t *testing.T) {
	m, err := NewJWTManager("secret")
	require.NoError(t, err)

	tok, err := m.CreateToken("u1", time.Hour)
	require.NoError(t, err)

	userID, err := m.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "u1", userID)
}

func TestVerify_NoExpiryIsAccepted(t *testing.T) {
	m, err := NewJWTManager("secret")
	require.NoError(t, err)

	tok, err := m.CreateToken("u1", 0)
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)
	require.Nil(t, claims.ExpiresAt)
}

func TestVerify_Expired(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	issuer := newJWTManager("secret", fixedClock(issued))
	tok, err := issuer.CreateToken("u1", time.Minute)
	require.NoError(t, err)

	verifier := newJWTManager("secret", fixedClock(issued.Add(2*time.Minute)))
	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, ErrExpiredToken)
	require.NotErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	a, err := NewJWTManager("a")
	require.NoError(t, err)
	b, err := NewJWTManager("b")
	require.NoError(t, err)

	tok, err := a.CreateToken("u1", time.Hour)
	require.NoError(t, err)

	_, err = b.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	m, err := NewJWTManager("secret")
	require.NoError(t, err)

	_, err = m.Verify("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	m, err := NewJWTManager("secret")
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, TokenClaims{UserID: "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Verify(hs512)
	require.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingClaim(t *testing.T) {
	m, err := NewJWTManager("secret")
	require.NoError(t, err)

	for _, userID := range []string{"", "   "} {
		tok, err := m.CreateToken(userID, time.Hour)
		require.NoError(t, err)

		_, err = m.Verify(tok)
		require.ErrorIs(t, err, ErrMissingClaim)
	}
}

func TestVerify_NonStringClaimIsInvalid(t *testing.T) {
	m, err := NewJWTManager("secret")
	require.NoError(t, err)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 42}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_IssuedInFuture(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	issuer := newJWTManager("secret", fixedClock(now.Add(time.Hour)))
	tok, err := issuer.CreateToken("u1", 2*time.Hour)
	require.NoError(t, err)

	verifier := newJWTManager("secret", fixedClock(now))
	_, err = verifier.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}
