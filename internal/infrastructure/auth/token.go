// Package auth issues and parses the HS256 claims tokens that carry the
// caller identity. The role claim is a hint only: the HTTP middleware
// re-resolves the user on every call.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"serviexpress/internal/domain/entities"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSecretNotConfigured = errors.New("token secret not configured")
	ErrInvalidToken        = errors.New("invalid token")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenService(secret, issuer string) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for the given user.
func (s *TokenService) Issue(userID string, role entities.Role, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrSecretNotConfigured
	}
	now := s.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates signature, expiry and issuer and returns the actor the
// token claims to be.
func (s *TokenService) Parse(raw string) (entities.Actor, error) {
	if len(s.secret) == 0 {
		return entities.Actor{}, ErrSecretNotConfigured
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return entities.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	role, ok := entities.ParseRole(claims.Role)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return entities.Actor{}, fmt.Errorf("%w: missing subject or role", ErrInvalidToken)
	}
	return entities.Actor{ID: claims.Subject, Role: role}, nil
}
