// Package auth issues and verifies bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/task-tracker-api/internal/constants"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrSecretTooWeak = fmt.Errorf("jwt secret must be at least %d characters", constants.MinJWTSecretLength)
)

// Claims are the JWT claims carried by access tokens. The user id is the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject back into a user id
func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// Token is a signed access token together with its identity and expiry
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenManager signs and verifies HS256 access tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < constants.MinJWTSecretLength {
		return nil, ErrSecretTooWeak
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}

	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a new token for the user
func (m *TokenManager) Issue(userID uint64) (Token, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return Token{
		Value:     signed,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse verifies the signature and time claims and returns the claims
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if _, err := claims.UserID(); err != nil || claims.ID == "" {
		return nil, fmt.Errorf("%w: malformed claims", ErrInvalidToken)
	}

	return claims, nil
}
