package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

var errConnRefused = errors.New("connection refused")

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}

type fixture struct {
	rm     *repomanager.MemoryRepositoryManager
	tokens *TokenService
	users  *UserService
}

func newFixture(t *testing.T, opts ...TokenOption) *fixture {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	return newFixtureWith(t, rm, rm, opts...)
}

// newFixtureWith lets a test substitute the manager seen by the services
// while keeping direct access to the memory stores.
func newFixtureWith(t *testing.T, mem *repomanager.MemoryRepositoryManager, rm repomanager.RepositoryManager, opts ...TokenOption) *fixture {
	t.Helper()
	tokens := NewTokenService(rm, testTokenConfig(), logging.Discard(), opts...)
	return &fixture{
		rm:     mem,
		tokens: tokens,
		users:  NewUserService(rm, tokens, password.NewBcrypt(bcrypt.MinCost), logging.Discard()),
	}
}

func (f *fixture) refreshStore() *memory.RefreshTokensRepository {
	return f.rm.RefreshTokens(nil).(*memory.RefreshTokensRepository)
}

func (f *fixture) userStore() *memory.UsersRepository {
	return f.rm.Users(nil).(*memory.UsersRepository)
}

// faultyManager wraps the memory manager and fails selected store calls.
type faultyManager struct {
	*repomanager.MemoryRepositoryManager
	upsertErr error
	deleteErr error
	getErr    error
	txErr     error
}

func (m *faultyManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return &faultyTokens{Repository: m.MemoryRepositoryManager.RefreshTokens(db), m: m}
}

func (m *faultyManager) Users(db dbx.DBTX) users.Repository {
	return &faultyUsers{Repository: m.MemoryRepositoryManager.Users(db), m: m}
}

func (m *faultyManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	if err := fn(ctx, nil); err != nil {
		return err
	}
	return m.txErr
}

type faultyTokens struct {
	refreshtokens.Repository
	m *faultyManager
}

func (r *faultyTokens) Upsert(ctx context.Context, token *models.RefreshToken) error {
	if r.m.upsertErr != nil {
		return r.m.upsertErr
	}
	return r.Repository.Upsert(ctx, token)
}

func (r *faultyTokens) DeleteByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if r.m.deleteErr != nil {
		return nil, r.m.deleteErr
	}
	return r.Repository.DeleteByToken(ctx, token)
}

type faultyUsers struct {
	users.Repository
	m *faultyManager
}

func (r *faultyUsers) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	if r.m.getErr != nil {
		return nil, r.m.getErr
	}
	return r.Repository.GetByID(ctx, id)
}

func (r *faultyUsers) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	if r.m.getErr != nil {
		return nil, r.m.getErr
	}
	return r.Repository.GetByEmail(ctx, email)
}
