// Package httpapi exposes the server services over a JSON REST surface.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/dmitrijs2005/ontop/internal/server/services"
	"github.com/dmitrijs2005/ontop/internal/server/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	Address         string
	AdminKey        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type HTTPServer struct {
	opts    Options
	users   *services.UserService
	data    *services.DataService
	store   store.Store
	backend string
	logger  logging.Logger
}

func NewHTTPServer(opts Options, l logging.Logger, us *services.UserService, ds *services.DataService, st store.Store, backend string) *HTTPServer {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	return &HTTPServer{
		opts:    opts,
		users:   us,
		data:    ds,
		store:   st,
		backend: backend,
		logger:  l.With("module", "http_server"),
	}
}

// Routes builds the router. Exported for tests.
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Get("/health", s.health)
	r.Post("/register", s.register)
	r.Post("/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.accessTokenMiddleware)

		r.Post("/tasks", s.saveTasks)
		r.Get("/tasks", s.getTasks)
		r.Post("/fitness", s.saveFitness)
		r.Get("/fitness", s.getFitness)
		r.Post("/finances", s.saveFinances)
		r.Get("/finances", s.getFinances)
		r.Get("/export", s.export)
		r.Delete("/account", s.deleteAccount)
		r.Get("/premium-status", s.premiumStatus)
		r.Post("/backup", s.backup)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.adminKeyMiddleware)
		r.Post("/admin/premium-status", s.adminUpdatePremium)
	})

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String(), "backend", s.backend)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
