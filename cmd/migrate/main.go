// Command migrate copies the embedded SQLite store into PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/migrate"
	"github.com/dmitrijs2005/ontop/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ontop/internal/server/store"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(os.Stderr, "text", "info")

	// .env is optional.
	_ = godotenv.Load()

	sqlitePath, target, err := migrate.OptionsFromEnv(os.Getenv)
	if err != nil {
		logger.Error(ctx, "invalid configuration", "error", err)
		return 1
	}

	src, err := store.OpenEmbeddedDB(ctx, sqlitePath)
	if err != nil {
		logger.Error(ctx, "open source", "path", sqlitePath, "error", err)
		return 1
	}
	defer src.Close()

	dst, err := store.OpenNetworkedDB(ctx, target)
	if err != nil {
		logger.Error(ctx, "open target", "host", target.Host, "error", err)
		return 1
	}
	defer dst.Close()

	repomanager.SetMigrationLogger(logger)
	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, dst); err != nil {
		logger.Error(ctx, "prepare target schema", "error", err)
		return 1
	}

	report, err := migrate.New(src, dst, logger).Run(ctx)
	fmt.Print(report.String())
	if err != nil {
		logger.Error(ctx, "migration failed", "error", err)
		return 1
	}

	logger.Info(ctx, "migration complete", "tables", len(report.Tables))
	return 0
}
