// Package password hashes and checks user passwords.
package password

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns a plaintext password into a one-way digest and checks a
// candidate against it.
type Hasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. A malformed or empty
	// digest is a mismatch, never an error.
	Verify(plaintext, digest string) bool
}

type Bcrypt struct {
	cost int
}

var _ Hasher = (*Bcrypt)(nil)

// NewBcrypt returns a bcrypt Hasher. A zero cost selects bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %w", common.ErrValidation, err)
		}
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(digest), nil
}

// Verify delegates to bcrypt's own comparison, which runs in constant time
// with respect to the digest contents.
func (b *Bcrypt) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
