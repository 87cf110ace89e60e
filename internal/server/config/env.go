package config

import (
	"os"
	"strconv"

	"github.com/dmitrijs2005/ontop/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays deployment environment variables. A .env file in the
// working directory is loaded first if present; real variables win over it.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	config.ListenAddr = listenAddr(config.ListenAddr)
	config.SQLitePath = flagx.Getenv("SQLITE_PATH", config.SQLitePath)
	config.DatabaseHost = flagx.Getenv("DB_HOST", config.DatabaseHost)
	config.DatabaseName = flagx.Getenv("DB_NAME", config.DatabaseName)
	config.DatabaseUser = flagx.Getenv("DB_USER", config.DatabaseUser)
	config.DatabasePassword = flagx.Getenv("DB_PASSWORD", config.DatabasePassword)
	config.DatabaseSSLMode = flagx.Getenv("DB_SSLMODE", config.DatabaseSSLMode)
	config.SecretKey = flagx.Getenv("JWT_SECRET", config.SecretKey)
	config.AdminKey = flagx.Getenv("ADMIN_KEY", config.AdminKey)
	config.S3Bucket = flagx.Getenv("S3_BUCKET", config.S3Bucket)
	config.S3Region = flagx.Getenv("S3_REGION", config.S3Region)

	if v, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil && v > 0 {
		config.DatabasePort = v
	}
	if v, err := strconv.Atoi(os.Getenv("DB_MAX_CONNS")); err == nil && v > 0 {
		config.MaxOpenConns = v
	}
}

// listenAddr honours PORT the way container platforms set it.
func listenAddr(def string) string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return def
}
