// Package auth signs and verifies the HS256 JWTs handed out as access and
// refresh tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. It never carries the password or its hash.
// IssuedAtNanos makes tokens minted at different instants differ even within
// the same second, which keeps refresh tokens usable as a primary key.
type Claims struct {
	jwt.RegisteredClaims
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	IssuedAtNanos int64  `json:"iat_ns"`
}

// Signer mints and checks tokens for one secret and one lifetime.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Signer)

// WithClock replaces time.Now as the source of issue and verification time.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// NewSigner returns a Signer. ttl is used as is: zero yields tokens that are
// already expired.
func NewSigner(secret []byte, ttl time.Duration, opts ...Option) *Signer {
	s := &Signer{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign returns the signed token and its expiry instant. The output is a pure
// function of the arguments, the secret, the ttl and the clock reading.
func (s *Signer) Sign(userID, email string) (string, time.Time, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:        userID,
		Email:         email,
		IssuedAtNanos: now.UnixNano(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing token: %w", err)
	}

	return token, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and expiry of tokenString. It fails with
// exactly one of common.ErrTokenMalformed, common.ErrTokenSignatureInvalid
// or common.ErrTokenExpired.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, common.ErrTokenSignatureInvalid
		default:
			return nil, common.ErrTokenMalformed
		}
	}

	if claims.ExpiresAt == nil || claims.UserID == "" {
		return nil, common.ErrTokenMalformed
	}
	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, common.ErrTokenExpired
	}

	return claims, nil
}
