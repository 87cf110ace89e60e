// Package repomanager vends the repositories of one SQL backend and the
// backend-specific pieces around them: schema migrations and driver error
// translation.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ontop/internal/dbx"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/ontop/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/ontop/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Profiles(db dbx.DBTX) profiles.Repository

	// TranslateError maps a driver error to a common sentinel, or returns
	// nil when the error has no backend-specific meaning.
	TranslateError(err error) error
}

var gooseUpContext = goose.UpContext

var migrationLogger = goose.NopLogger()

// SetMigrationLogger sends goose progress output to l.
func SetMigrationLogger(l logging.Logger) { migrationLogger = logging.MigrationLogger(l) }

type sqlRepositories struct {
	d dbx.Dialect
}

func (m sqlRepositories) Dialect() dbx.Dialect { return m.d }

func (m sqlRepositories) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.d)
}

func (m sqlRepositories) Tasks(db dbx.DBTX) tasks.Repository {
	return tasks.NewSQLRepository(db, m.d)
}

func (m sqlRepositories) Profiles(db dbx.DBTX) profiles.Repository {
	return profiles.NewSQLRepository(db, m.d)
}
