package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/dbx"
	pgmigrations "github.com/dmitrijs2005/ontop/internal/server/migrations/postgres"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager backs the networked store.
type PostgresRepositoryManager struct {
	sqlRepositories
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{sqlRepositories{d: dbx.Postgres}}
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetLogger(migrationLogger)
	goose.SetBaseFS(pgmigrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return gooseUpContext(ctx, db, ".")
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func (m *PostgresRepositoryManager) TranslateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return common.ErrConflict
		case pgErr.Code == pgForeignKeyViolation:
			return common.ErrNotFound
		// connection exceptions, insufficient resources, operator intervention
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "53"),
			strings.HasPrefix(pgErr.Code, "57P"):
			return common.ErrUnavailable
		}
		return nil
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return common.ErrUnavailable
	}

	return nil
}
