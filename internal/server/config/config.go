// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/ontop/internal/server/store"
)

// Config holds runtime settings for the ontop server.
//
// Fields:
//   - ListenAddr: bind address for the REST endpoint.
//   - SQLitePath: embedded backend file, used when DatabaseHost is empty.
//   - DatabaseHost..DatabaseSSLMode: networked backend; a non-empty host selects it.
//   - MaxOpenConns / MaxIdleConns / ConnMaxLifetime: networked pool limits.
//   - RequestTimeout: per-request deadline, also bounds pool acquisition.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - TokenTTL: session token lifetime.
//   - AdminKey: shared secret for the premium admin endpoint; empty disables it.
//   - S3*: backup object storage; an empty bucket disables backups.
type Config struct {
	ListenAddr string

	SQLitePath       string
	DatabaseHost     string
	DatabasePort     int
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseSSLMode  string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	SecretKey string
	TokenTTL  time.Duration
	AdminKey  string

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":5000"
	c.SQLitePath = "ontop.db"
	c.DatabasePort = 5432
	c.DatabaseName = "ontop"
	c.DatabaseSSLMode = "disable"
	c.MaxOpenConns = 20
	c.MaxIdleConns = 5
	c.ConnMaxLifetime = 30 * time.Minute
	c.RequestTimeout = 10 * time.Second
	c.ShutdownTimeout = 5 * time.Second
	c.SecretKey = "secretKey"
	c.TokenTTL = 30 * 24 * time.Hour
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// StoreOptions projects the database settings for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		SQLitePath:      c.SQLitePath,
		Host:            c.DatabaseHost,
		Port:            c.DatabasePort,
		Name:            c.DatabaseName,
		User:            c.DatabaseUser,
		Password:        c.DatabasePassword,
		SSLMode:         c.DatabaseSSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnectTimeout:  c.RequestTimeout,
	}
}
