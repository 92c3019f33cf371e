// Package session holds the bearer token the gateway authenticates with and
// the claims it carries. Token persistence is the caller's concern.
package session

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Role is the kind of account a token belongs to.
type Role string

const (
	RoleClientAdmin   Role = "client_admin"
	RoleStakeholder   Role = "stakeholder"
	RolePlatformAdmin Role = "platform_admin"
)

// Claims are the application claims carried in access tokens.
type Claims struct {
	UserID   string `json:"uid"`
	ClientID string `json:"cid,omitempty"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned for tokens that cannot be decoded or verified.
var ErrInvalidToken = errors.New("invalid token")

// Session is an immutable view of the current token.
type Session struct {
	token  string
	claims *Claims
}

// New decodes token without verifying its signature; the server verifies.
// An empty token yields an anonymous session.
func New(token string) (*Session, error) {
	if token == "" {
		return &Session{}, nil
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &Session{token: token, claims: claims}, nil
}

// Token returns the raw bearer token, empty when anonymous.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.token
}

// Claims returns the decoded claims, nil when anonymous.
func (s *Session) Claims() *Claims {
	if s == nil {
		return nil
	}
	return s.claims
}

// Anonymous reports whether no token is present.
func (s *Session) Anonymous() bool { return s.Token() == "" }

// Expired reports whether the token's exp claim is at or before now.
// Tokens without exp never expire client-side.
func (s *Session) Expired(now time.Time) bool {
	c := s.Claims()
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// Sign issues an HS256 token. Used by the development backend and tests.
func Sign(secret []byte, c Claims, ttl time.Duration, now time.Time) (string, error) {
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

// Verify parses and validates an HS256 token.
func Verify(secret []byte, token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, ErrInvalidToken
}
