package repomanager

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/dbx"
	sqlitemigrations "github.com/dmitrijs2005/ontop/internal/server/migrations/sqlite"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepositoryManager backs the embedded store.
type SQLiteRepositoryManager struct {
	sqlRepositories
}

func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{sqlRepositories{d: dbx.SQLite}}
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetLogger(migrationLogger)
	goose.SetBaseFS(sqlitemigrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return gooseUpContext(ctx, db, ".")
}

func (m *SQLiteRepositoryManager) TranslateError(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return nil
	}

	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return common.ErrConflict
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return common.ErrNotFound
	}

	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return common.ErrUnavailable
	}

	return nil
}
