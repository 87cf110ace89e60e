package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/ontop/internal/flagx"
)

var serverFlags = []string{"-a", "-f", "-d", "-s", "-t", "-k", "-u", "-p", "-b", "-g", "-e", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   REST bind address (e.g., ":5000")
//	-f string   embedded backend SQLite file
//	-d string   networked backend host; selects PostgreSQL when set
//	-s string   JWT HMAC secret key
//	-t int      token validity, hours
//	-k string   admin key for the premium endpoint
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
func parseFlags(config *Config) {
	parseArgs(config, os.Args[1:])
}

func parseArgs(config *Config, argv []string) {
	args := flagx.FilterArgs(argv, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.SQLitePath, "f", config.SQLitePath, "embedded database file")
	fs.StringVar(&config.DatabaseHost, "d", config.DatabaseHost, "networked database host")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenTTL := fs.Int("t", int(config.TokenTTL.Hours()), "token_ttl (in hours)")

	fs.StringVar(&config.AdminKey, "k", config.AdminKey, "admin key")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenTTL = time.Duration(*tokenTTL) * time.Hour
}
