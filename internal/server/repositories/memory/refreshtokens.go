package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type RefreshTokensRepository struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func NewRefreshTokensRepository() *RefreshTokensRepository {
	return &RefreshTokensRepository{tokens: make(map[string]models.RefreshToken)}
}

func (r *RefreshTokensRepository) Upsert(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.Token]; ok {
		return nil
	}
	rec := *token
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	r.tokens[rec.Token] = rec
	return nil
}

func (r *RefreshTokensRepository) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rec, nil
}

func (r *RefreshTokensRepository) DeleteByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.tokens, token)
	return &rec, nil
}

func (r *RefreshTokensRepository) DeleteExpiredBefore(_ context.Context, instant time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for k, rec := range r.tokens {
		if rec.ExpiresAt.Before(instant) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of outstanding records.
func (r *RefreshTokensRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
