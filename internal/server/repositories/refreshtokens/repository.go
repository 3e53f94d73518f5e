// Package refreshtokens declares the server-side repository contract for
// outstanding refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the token store. All mutation of refresh-token records goes
// through these primitives; callers never read-then-write.
type Repository interface {
	// Upsert inserts the record, or does nothing if a record with the same
	// token value already exists. Re-asserting an existing token is not an error.
	Upsert(ctx context.Context, token *models.RefreshToken) error

	// Find returns the record for token, or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteByToken atomically removes and returns the record. Of several
	// concurrent calls for the same token exactly one succeeds; the rest get
	// common.ErrorNotFound.
	DeleteByToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteExpiredBefore removes every record whose expiry is before instant
	// and reports how many were removed.
	DeleteExpiredBefore(ctx context.Context, instant time.Time) (int64, error)
}
