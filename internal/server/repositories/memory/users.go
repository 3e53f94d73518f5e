// Package memory provides mutex-guarded in-process implementations of the
// server repositories. They honour the same contracts as the PostgreSQL
// implementations and back the "memory" storage mode and service tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

type UsersRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.Identity
	byEmail map[string]string
}

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{
		byID:    make(map[string]models.Identity),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(email)
}

func (r *UsersRepository) Create(_ context.Context, identity *models.Identity) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(identity.Email)
	if _, ok := r.byEmail[key]; ok {
		return nil, common.ErrEmailTaken
	}

	identity.ID = uuid.NewString()
	identity.CreatedAt = time.Now()
	r.byID[identity.ID] = *identity
	r.byEmail[key] = identity.ID

	return identity, nil
}

func (r *UsersRepository) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	identity := r.byID[id]
	return &identity, nil
}

func (r *UsersRepository) GetByID(_ context.Context, id string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &identity, nil
}

// Len reports the number of stored identities.
func (r *UsersRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
