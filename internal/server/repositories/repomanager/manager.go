package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophcrud/internal/dbx"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/items"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a pool or a transaction so
// services can compose several of them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Items(db dbx.DBTX) items.Repository
}
