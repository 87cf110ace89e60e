package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/ontop/internal/client/api"
	"github.com/dmitrijs2005/ontop/internal/client/config"
	"github.com/dmitrijs2005/ontop/internal/client/connectivity"
	"github.com/dmitrijs2005/ontop/internal/client/localstore"
	"github.com/dmitrijs2005/ontop/internal/client/services"
	"github.com/dmitrijs2005/ontop/internal/client/session"
	"github.com/dmitrijs2005/ontop/internal/client/syncqueue"
	"github.com/dmitrijs2005/ontop/internal/client/syncworker"
	"github.com/dmitrijs2005/ontop/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	kv      *localstore.Store
	api     *api.Client
	session *session.Manager
	queue   *syncqueue.Queue
	conn    *connectivity.Monitor
	worker  *syncworker.Worker
	data    *services.DataService
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp opens the local store and wires the sync engine. The previous
// session and queue are restored from disk.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, "text", c.LogLevel)

	localstore.SetMigrationLogger(logger)
	kv, err := localstore.Open(ctx, c.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing local store: %w", err)
	}

	client := api.New(c.ServerURL, c.RequestTimeout)
	state := services.NewAppState()
	sess := session.NewManager(client, kv, logger)
	queue := syncqueue.New(kv, logger)
	conn := connectivity.New(logger)
	worker := syncworker.New(queue, client, sess, conn, c.SyncInterval, logger)
	data := services.NewDataService(client, kv, queue, sess, conn, state, logger)

	if err := queue.Load(ctx); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("error loading sync queue: %w", err)
	}
	if err := sess.Restore(ctx); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("error restoring session: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logger,
		kv:      kv,
		api:     client,
		session: sess,
		queue:   queue,
		conn:    conn,
		worker:  worker,
		data:    data,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	app.wireHooks(ctx)
	return app, nil
}

// wireHooks connects the engine's events: coming online or logging in
// flushes the queue and refreshes the caches; logging out wipes memory.
func (a *App) wireHooks(ctx context.Context) {
	a.session.OnLogout(a.data.Forget)

	flush := func() {
		a.worker.Trigger()
		if err := a.data.Pull(ctx); err != nil {
			a.logger.Debug(ctx, "refresh failed", "error", err)
		}
	}
	a.session.OnLogin(flush)
	a.conn.OnOnline(flush)
}

func (a *App) Run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.conn.Watch(ctx, a.config.OnlineCheckInterval, a.api.Ping)
	}()
	go func() {
		defer wg.Done()
		a.worker.Run(ctx)
	}()

	printlnFn("Welcome to ontop (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader))

	stop()
	wg.Wait()

	if err := a.queue.Persist(context.Background()); err != nil {
		a.logger.Error(ctx, "persist queue on exit", "error", err)
	}
	if err := a.kv.Close(); err != nil {
		a.logger.Error(ctx, "close local store", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

// status renders the prompt prefix, e.g. "(alice@example.com online, 2 queued)".
func (a *App) status() string {
	s := string(a.conn.State())
	if u := a.session.CurrentUser(); u != nil && a.session.IsAuthenticated() {
		s = u.Email + " " + s
	}
	if n := a.queue.Len(); n > 0 {
		s = fmt.Sprintf("%s, %d queued", s, n)
	}
	return "(" + s + ")"
}
