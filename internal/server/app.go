// Package server initializes and runs the ontop REST server. The storage
// backend is selected once here and stays fixed for the process lifetime.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/backup"
	"github.com/dmitrijs2005/ontop/internal/server/config"
	"github.com/dmitrijs2005/ontop/internal/server/httpapi"
	"github.com/dmitrijs2005/ontop/internal/server/services"
	"github.com/dmitrijs2005/ontop/internal/server/store"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	store       *store.Gateway
	userService *services.UserService
	dataService *services.DataService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	st, err := store.Open(ctx, c.StoreOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	var backups services.BackupStore
	bc := backup.Config{
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
	}
	if bc.Enabled() {
		s3store, err := backup.NewS3Store(ctx, bc)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("backup init error: %w", err)
		}
		backups = s3store
	} else {
		logger.Info(ctx, "backups disabled: no bucket configured")
	}

	return &App{
		config:      c,
		logger:      logger,
		store:       st,
		userService: services.NewUserService(st, c, logger),
		dataService: services.NewDataService(st, backups, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(httpapi.Options{
		Address:         app.config.ListenAddr,
		AdminKey:        app.config.AdminKey,
		RequestTimeout:  app.config.RequestTimeout,
		ShutdownTimeout: app.config.ShutdownTimeout,
	}, app.logger, app.userService, app.dataService, app.store, app.store.Backend().String())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.store.Backend().String())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
