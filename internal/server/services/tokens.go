package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenConfig holds the two independent secrets and lifetimes. Zero ttls
// fall back to DefaultAccessTokenTTL and DefaultRefreshTokenTTL.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenService issues token pairs and rotates refresh tokens. It is the only
// writer of refresh token records outside the sweeper; every mutation goes
// through the store's atomic Upsert and DeleteByToken.
type TokenService struct {
	repomanager repomanager.RepositoryManager
	access      *auth.Signer
	refresh     *auth.Signer
	now         func() time.Time
	log         logging.Logger
}

type TokenOption func(*TokenService)

// WithClock sets the clock shared by both signers and the rotation expiry check.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

func NewTokenService(rm repomanager.RepositoryManager, cfg TokenConfig, log logging.Logger, opts ...TokenOption) *TokenService {
	s := &TokenService{
		repomanager: rm,
		now:         time.Now,
		log:         log.With("module", "tokens"),
	}
	for _, opt := range opts {
		opt(s)
	}

	accessTTL := cfg.AccessTTL
	if accessTTL == 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL == 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	s.access = auth.NewSigner(cfg.AccessSecret, accessTTL, auth.WithClock(s.now))
	s.refresh = auth.NewSigner(cfg.RefreshSecret, refreshTTL, auth.WithClock(s.now))
	return s
}

// Issue signs a fresh pair for identity and records the refresh token using
// db, which may be a transaction.
func (s *TokenService) Issue(ctx context.Context, db dbx.DBTX, identity *models.Identity) (*TokenPair, error) {
	access, _, err := s.access.Sign(identity.ID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}

	refresh, expiresAt, err := s.refresh.Sign(identity.ID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}

	record := &models.RefreshToken{
		Token:     refresh,
		UserID:    identity.ID,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	if err := s.repomanager.RefreshTokens(db).Upsert(ctx, record); err != nil {
		return nil, common.StoreFault(err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate redeems refreshToken exactly once and issues a new pair for its
// owner. Unknown, already rotated, swept and expired tokens all fail with
// common.ErrInvalidToken.
//
// The old record is consumed before the new pair is minted, so a failure
// after the consume leaves the caller with no valid refresh token rather
// than two.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*models.Identity, *TokenPair, error) {
	if _, err := s.refresh.Verify(refreshToken); err != nil {
		s.log.Debug(ctx, "refresh token rejected", "reason", err)
		return nil, nil, common.ErrInvalidToken
	}

	conn := s.repomanager.Conn()

	record, err := s.repomanager.RefreshTokens(conn).DeleteByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, common.StoreFault(err)
	}

	if record.Expired(s.now()) {
		return nil, nil, common.ErrInvalidToken
	}

	identity, err := s.repomanager.Users(conn).GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, common.StoreFault(err)
	}

	pair, err := s.Issue(ctx, conn, identity)
	if err != nil {
		return nil, nil, err
	}

	return identity, pair, nil
}

// VerifyAccess checks an access token and returns its claims.
func (s *TokenService) VerifyAccess(token string) (*auth.Claims, error) {
	return s.access.Verify(token)
}
