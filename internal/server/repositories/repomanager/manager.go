// Package repomanager vends repositories bound to a database handle and owns
// the connection, transactions and schema migrations for a storage backend.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	// RunMigrations brings the schema up to date.
	RunMigrations(ctx context.Context) error
	// Conn returns the non-transactional handle.
	Conn() dbx.DBTX
	// WithTx runs fn inside a transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn dbx.TxFunc) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Close() error
}
