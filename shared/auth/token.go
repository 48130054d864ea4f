// Package auth issues and verifies the HS256 bearer tokens carried by every
// /api request.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when the Authorization header carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when the token fails signature or claim validation.
	ErrInvalidToken = errors.New("could not validate credentials")
)

// Tokens signs and verifies tokens with a shared secret.
type Tokens struct {
	secret []byte
	expire time.Duration
	now    func() time.Time
}

// New returns a Tokens for the given secret. expire <= 0 means 30 minutes.
func New(secret string, expire time.Duration) *Tokens {
	if expire <= 0 {
		expire = 30 * time.Minute
	}
	return &Tokens{secret: []byte(secret), expire: expire, now: time.Now}
}

// Issue signs a token for subject.
func (t *Tokens) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.expire)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify checks the token and returns its subject.
func (t *Tokens) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// FromRequest extracts the bearer token from the Authorization header.
func FromRequest(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
