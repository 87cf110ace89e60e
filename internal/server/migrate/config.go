package migrate

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/ontop/internal/server/store"
)

// OptionsFromEnv reads the migration parameters. getenv is usually
// os.Getenv after a .env file has been loaded.
func OptionsFromEnv(getenv func(string) string) (sqlitePath string, target store.Options, err error) {
	get := func(k, def string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return def
	}

	sqlitePath = get("SQLITE_PATH", "ontop.db")

	port, err := strconv.Atoi(get("DB_PORT", "5432"))
	if err != nil {
		return "", store.Options{}, fmt.Errorf("DB_PORT: %w", err)
	}

	target = store.Options{
		Host:         getenv("DB_HOST"),
		Port:         port,
		Name:         get("DB_NAME", "ontop"),
		User:         getenv("DB_USER"),
		Password:     getenv("DB_PASSWORD"),
		SSLMode:      get("DB_SSLMODE", "disable"),
		MaxOpenConns: 4,
	}
	if target.Host == "" {
		return "", store.Options{}, fmt.Errorf("DB_HOST is required")
	}

	return sqlitePath, target, nil
}
