package store

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/repositories/repomanager"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Options carries the settings of both backends. A non-empty Host selects
// the networked backend.
type Options struct {
	SQLitePath string

	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

func (o Options) Networked() bool { return o.Host != "" }

// PostgresDSN renders the networked connection string.
func (o Options) PostgresDSN() string {
	port := o.Port
	if port == 0 {
		port = 5432
	}

	q := url.Values{}
	if o.SSLMode != "" {
		q.Set("sslmode", o.SSLMode)
	}
	if o.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(o.ConnectTimeout.Seconds())))
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(o.Host, strconv.Itoa(port)),
		Path:     "/" + o.Name,
		RawQuery: q.Encode(),
	}
	if o.User != "" {
		u.User = url.UserPassword(o.User, o.Password)
	}

	return u.String()
}

// Open is the backend selector. It is called once at process start; the
// chosen backend does not change for the lifetime of the process.
func Open(ctx context.Context, opts Options, logger logging.Logger) (*Gateway, error) {
	var (
		db  *sql.DB
		rm  repomanager.RepositoryManager
		err error
	)

	if opts.Networked() {
		db, err = OpenNetworkedDB(ctx, opts)
		rm = repomanager.NewPostgresRepositoryManager()
	} else {
		db, err = OpenEmbeddedDB(ctx, opts.SQLitePath)
		rm = repomanager.NewSQLiteRepositoryManager()
	}
	if err != nil {
		return nil, err
	}

	repomanager.SetMigrationLogger(logger)
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	g := NewGateway(db, rm, logger)
	g.logger.Info(ctx, "store opened")

	return g, nil
}

// EmbeddedDSN adds the pragmas every embedded connection needs.
func EmbeddedDSN(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

// OpenEmbeddedDB opens the SQLite file with a single connection, which
// serializes every statement issued through it.
func OpenEmbeddedDB(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("embedded store: empty database path")
	}

	db, err := sql.Open("sqlite", EmbeddedDSN(path))
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}

// OpenNetworkedDB opens a bounded PostgreSQL pool through pgx's
// database/sql adapter.
func OpenNetworkedDB(ctx context.Context, opts Options) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(opts.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	db := stdlib.OpenDB(*cfg)
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}
