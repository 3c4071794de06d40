package repomanager

import (
	"context"
	"database/sql"

	"github.com/scanvault/scanvault/internal/dbx"
	"github.com/scanvault/scanvault/internal/server/repositories/files"
	"github.com/scanvault/scanvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
}
