// Package services contains server-side business logic: signup, login and
// refresh on top of the token lifecycle.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// AuthResult is what signup, login and refresh hand back to the caller.
type AuthResult struct {
	IdentityID   string
	AccessToken  string
	RefreshToken string
}

func newAuthResult(identity *models.Identity, pair *TokenPair) *AuthResult {
	return &AuthResult{
		IdentityID:   identity.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}

// UserService provides the authentication boundary:
// - Signup: create an identity and issue its first pair
// - Login: check credentials and issue a pair
// - Refresh: rotate a refresh token
type UserService struct {
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	hasher      password.Hasher
	log         logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(rm repomanager.RepositoryManager, tokens *TokenService, hasher password.Hasher, log logging.Logger) *UserService {
	return &UserService{
		repomanager: rm,
		tokens:      tokens,
		hasher:      hasher,
		log:         log.With("module", "users"),
	}
}

// Signup creates the identity and its first token pair in one transaction.
// A duplicate email fails with common.ErrEmailTaken and creates nothing.
func (s *UserService) Signup(ctx context.Context, name, email, plaintext string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || plaintext == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", common.ErrValidation)
	}

	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	var (
		identity *models.Identity
		pair     *TokenPair
		fnErr    error
	)
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		identity, fnErr = s.repomanager.Users(tx).Create(ctx, &models.Identity{
			Name:         name,
			Email:        email,
			PasswordHash: digest,
		})
		if fnErr != nil {
			if !errors.Is(fnErr, common.ErrEmailTaken) {
				fnErr = common.StoreFault(fnErr)
			}
			return fnErr
		}

		pair, fnErr = s.tokens.Issue(ctx, tx, identity)
		return fnErr
	})
	if err != nil {
		if fnErr == nil {
			// begin or commit failed
			err = common.StoreFault(err)
		}
		return nil, err
	}

	s.log.Info(ctx, "identity created", "user_id", identity.ID)
	return newAuthResult(identity, pair), nil
}

// Login never tells the caller whether the email or the password was wrong.
func (s *UserService) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	conn := s.repomanager.Conn()

	identity, err := s.repomanager.Users(conn).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same bcrypt time as a real mismatch
			s.hasher.Verify(plaintext, s.dummyDigest())
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.StoreFault(err)
	}

	if !s.hasher.Verify(plaintext, identity.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(ctx, conn, identity)
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "login succeeded", "user_id", identity.ID)
	return newAuthResult(identity, pair), nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	identity, pair, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return newAuthResult(identity, pair), nil
}

func (s *UserService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("gophauth-dummy-password")
		if err != nil {
			s.log.Warn(context.Background(), "cannot compute dummy digest", "error", err)
			return
		}
		s.dummyHash = digest
	})
	return s.dummyHash
}
