// Package users declares the identity store contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists identities. Email lookups are case-insensitive.
type Repository interface {
	// Create stores a new identity and fills in its store-assigned fields.
	// Returns common.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)

	// GetByEmail returns common.ErrorNotFound when no identity has the email.
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)

	// GetByID returns common.ErrorNotFound when no identity has the id.
	GetByID(ctx context.Context, id string) (*models.Identity, error)
}
