// Package localstore is the client's durable key-value store. Every value is
// a JSON document kept in a single SQLite table, so the session, the cached
// Domain Records and the sync queue all survive a restart.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/ontop/internal/client/localstore/migrations"
	"github.com/dmitrijs2005/ontop/internal/dbx"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Well-known keys.
const (
	KeyAuthToken = "auth_token"
	KeyUser      = "user"
	KeyTasks     = "tasks"
	KeyFitness   = "fitness"
	KeyFinances  = "finances"
	KeySyncQueue = "sync_queue"
)

// DomainKeys are the cached Domain Record keys wiped on logout.
var DomainKeys = []string{KeyTasks, KeyFitness, KeyFinances}

var gooseUpContext = goose.UpContext

// migrationLogger receives goose output; silent until SetMigrationLogger.
var migrationLogger = goose.NopLogger()

func SetMigrationLogger(l logging.Logger) { migrationLogger = logging.MigrationLogger(l) }

type Store struct {
	db   *sql.DB
	repo Repository
}

// Open opens (creating if needed) the SQLite file at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("local store: empty path")
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, repo: NewSQLiteRepository(db)}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetLogger(migrationLogger)
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) { return s.repo.Get(ctx, key) }

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.repo.Set(ctx, key, value)
}

func (s *Store) Delete(ctx context.Context, key string) error { return s.repo.Delete(ctx, key) }

func (s *Store) List(ctx context.Context) (map[string][]byte, error) { return s.repo.List(ctx) }

func (s *Store) Clear(ctx context.Context) error { return s.repo.Clear(ctx) }

// GetJSON decodes the value at key into v. It reports false when the key is
// absent, leaving v untouched.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode kv[%s]: %w", key, err)
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode kv[%s]: %w", key, err)
	}
	return s.repo.Set(ctx, key, raw)
}

// DeleteKeys removes several keys in one transaction.
func (s *Store) DeleteKeys(ctx context.Context, keys ...string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for _, k := range keys {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Close() error { return s.db.Close() }
