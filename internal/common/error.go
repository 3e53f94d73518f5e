// Package common defines shared constants and sentinel errors used across
// the service layers of gophauth. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Boundary errors surfaced to callers.
	ErrValidation         = errors.New("validation failed")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")

	// Infrastructure faults. Never swallowed outside the sweeper.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Token verification failures.
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
)

// StoreFault wraps err so that it matches ErrStoreUnavailable while keeping
// the original cause reachable through errors.Is / errors.As.
func StoreFault(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
