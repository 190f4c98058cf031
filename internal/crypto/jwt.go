package crypto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for malformed tokens, bad signatures and
	// unexpected signing algorithms.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the exp claim is in the past.
	ErrExpiredToken = errors.New("token expired")
	// ErrMissingClaim is returned when the userId claim is absent or blank.
	ErrMissingClaim = errors.New("missing userId claim")
	// ErrEmptySecret is returned by NewJWTManager for an empty secret.
	ErrEmptySecret = errors.New("signing secret is empty")
)

// TokenClaims represents the JWT token payload.
type TokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 bearer tokens with a shared secret.
//
// A JWTManager holds no mutable state and is safe for concurrent use.
type JWTManager struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager keyed by secret.
func NewJWTManager(secret string) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return newJWTManager(secret, time.Now), nil
}

func newJWTManager(secret string, now func() time.Time) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(now),
		),
		now: now,
	}
}

// CreateToken issues a token for userID. A zero ttl produces a token without
// an exp claim.
func (m *JWTManager) CreateToken(userID string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyToken verifies and parses a JWT token.
//
// Every failure wraps exactly one of ErrInvalidToken, ErrExpiredToken or
// ErrMissingClaim.
func (m *JWTManager) VerifyToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrMissingClaim
	}
	return claims, nil
}

// Verify returns the userId carried by a valid token.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	claims, err := m.VerifyToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
