// Package services contains the client's application services. DataService
// is the write-through path for Domain Records: every change lands in the
// local store first and then either reaches the server or waits in the
// sync queue.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/ontop/internal/client/localstore"
	"github.com/dmitrijs2005/ontop/internal/client/models"
	"github.com/dmitrijs2005/ontop/internal/client/syncqueue"
	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/logging"
)

type API interface {
	Send(ctx context.Context, token, method, endpoint string, payload json.RawMessage) error
	GetTasks(ctx context.Context, token string) ([]models.Task, error)
	GetFitness(ctx context.Context, token string) (json.RawMessage, error)
	GetFinances(ctx context.Context, token string) (json.RawMessage, error)
	Export(ctx context.Context, token string) (json.RawMessage, error)
	PremiumStatus(ctx context.Context, token string) (*models.PremiumStatus, error)
	Backup(ctx context.Context, token string) (*models.BackupResult, error)
	DeleteAccount(ctx context.Context, token string) error
	Download(ctx context.Context, url string) ([]byte, error)
}

type Session interface {
	IsAuthenticated() bool
	CurrentToken() string
	CurrentUserID() int64
	HandleUnauthorized(ctx context.Context) error
	Logout(ctx context.Context) error
}

type Queue interface {
	Enqueue(ctx context.Context, m syncqueue.Mutation) error
	Len() int
	Clear(ctx context.Context) error
}

type Connectivity interface {
	Online() bool
}

type KV interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

// Outcome tells the caller where a saved change ended up.
type Outcome int

const (
	Sent Outcome = iota + 1
	Queued
)

func (o Outcome) String() string {
	switch o {
	case Sent:
		return "synced"
	case Queued:
		return "queued"
	default:
		return "unknown"
	}
}

var validPriorities = map[string]bool{"": true, "low": true, "medium": true, "high": true}

type DataService struct {
	api     API
	kv      KV
	queue   Queue
	session Session
	conn    Connectivity
	state   *AppState
	logger  logging.Logger
	now     func() time.Time

	// mu orders local cache writes; version counts them so a pull can tell
	// whether the cache changed while it was fetching.
	mu      sync.Mutex
	version uint64
}

func NewDataService(api API, kv KV, q Queue, sess Session, conn Connectivity, state *AppState, logger logging.Logger) *DataService {
	return &DataService{
		api:     api,
		kv:      kv,
		queue:   q,
		session: sess,
		conn:    conn,
		state:   state,
		logger:  logger.With("module", "data"),
		now:     time.Now,
	}
}

// SaveTasks replaces the whole task collection.
func (s *DataService) SaveTasks(ctx context.Context, tasks []models.Task) (Outcome, error) {
	now := s.now().UTC()
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			return 0, fmt.Errorf("%w: task %d has no title", common.ErrValidation, i+1)
		}
		if !validPriorities[t.Priority] {
			return 0, fmt.Errorf("%w: task %d has unknown priority %q", common.ErrValidation, i+1, t.Priority)
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		out[i] = t
	}

	err := s.writeLocal(func() error {
		if err := s.kv.SetJSON(ctx, localstore.KeyTasks, out); err != nil {
			return err
		}
		s.state.SetTasks(out)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return s.dispatch(ctx, http.MethodPost, "/tasks", map[string]any{"tasks": out})
}

func (s *DataService) SaveFitness(ctx context.Context, doc json.RawMessage) (Outcome, error) {
	if !json.Valid(doc) {
		return 0, fmt.Errorf("%w: fitness profile is not valid JSON", common.ErrValidation)
	}
	err := s.writeLocal(func() error {
		if err := s.kv.SetJSON(ctx, localstore.KeyFitness, doc); err != nil {
			return err
		}
		s.state.SetFitness(doc)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return s.dispatch(ctx, http.MethodPost, "/fitness", doc)
}

func (s *DataService) SaveFinances(ctx context.Context, doc json.RawMessage) (Outcome, error) {
	if !json.Valid(doc) {
		return 0, fmt.Errorf("%w: finance profile is not valid JSON", common.ErrValidation)
	}
	err := s.writeLocal(func() error {
		if err := s.kv.SetJSON(ctx, localstore.KeyFinances, doc); err != nil {
			return err
		}
		s.state.SetFinances(doc)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return s.dispatch(ctx, http.MethodPost, "/finances", doc)
}

// dispatch sends the mutation now when possible and queues it otherwise.
// Rejections the server will repeat on replay are returned to the caller.
func (s *DataService) dispatch(ctx context.Context, method, endpoint string, payload any) (Outcome, error) {
	m, err := syncqueue.NewMutation(method, endpoint, payload, s.session.CurrentUserID(), s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	if !s.conn.Online() || !s.session.IsAuthenticated() {
		return s.enqueue(ctx, m)
	}

	err = s.api.Send(ctx, s.session.CurrentToken(), m.Method, m.Endpoint, m.Payload)
	kind := common.Classify(err)

	switch {
	case kind == common.KindNone:
		return Sent, nil
	case kind == common.KindUnauthorized:
		if lerr := s.session.HandleUnauthorized(ctx); lerr != nil {
			s.logger.Error(ctx, "forced logout failed", "error", lerr)
		}
		if _, qerr := s.enqueue(ctx, m); qerr != nil {
			return 0, qerr
		}
		return Queued, fmt.Errorf("session ended, change kept for later: %w", err)
	case common.Retryable(kind):
		s.logger.Warn(ctx, "send failed, queueing", "endpoint", endpoint, "error", err)
		return s.enqueue(ctx, m)
	default:
		return 0, err
	}
}

func (s *DataService) writeLocal(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return fn()
}

// Forget drops the in-memory records. It runs on logout.
func (s *DataService) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.state.Reset()
}

func (s *DataService) enqueue(ctx context.Context, m syncqueue.Mutation) (Outcome, error) {
	if err := s.queue.Enqueue(ctx, m); err != nil {
		return 0, err
	}
	s.logger.Debug(ctx, "mutation queued", "id", m.ID, "endpoint", m.Endpoint)
	return Queued, nil
}

// Tasks returns the cached collection, loading it from the local store on
// first use.
func (s *DataService) Tasks(ctx context.Context) ([]models.Task, error) {
	if tasks, ok := s.state.Tasks(); ok {
		return tasks, nil
	}

	var tasks []models.Task
	if _, err := s.kv.GetJSON(ctx, localstore.KeyTasks, &tasks); err != nil {
		return nil, err
	}
	s.state.SetTasks(tasks)
	return tasks, nil
}

func (s *DataService) Fitness(ctx context.Context) (json.RawMessage, error) {
	if doc := s.state.Fitness(); doc != nil {
		return doc, nil
	}
	var doc json.RawMessage
	if _, err := s.kv.GetJSON(ctx, localstore.KeyFitness, &doc); err != nil {
		return nil, err
	}
	s.state.SetFitness(doc)
	return doc, nil
}

func (s *DataService) Finances(ctx context.Context) (json.RawMessage, error) {
	if doc := s.state.Finances(); doc != nil {
		return doc, nil
	}
	var doc json.RawMessage
	if _, err := s.kv.GetJSON(ctx, localstore.KeyFinances, &doc); err != nil {
		return nil, err
	}
	s.state.SetFinances(doc)
	return doc, nil
}

// Pull refreshes the local caches from the server. It is skipped while
// local changes are still queued, since those are newer than the server,
// and its result is discarded if the cache changed during the fetch.
func (s *DataService) Pull(ctx context.Context) error {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	if n := s.queue.Len(); n > 0 {
		s.logger.Info(ctx, "pull skipped, local changes pending", "queued", n)
		return nil
	}

	var (
		tasks             []models.Task
		fitness, finances json.RawMessage
	)
	err := s.remote(ctx, func(token string) (err error) {
		if tasks, err = s.api.GetTasks(ctx, token); err != nil {
			return err
		}
		if fitness, err = s.api.GetFitness(ctx, token); err != nil {
			return err
		}
		finances, err = s.api.GetFinances(ctx, token)
		return err
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version || s.queue.Len() > 0 || !s.session.IsAuthenticated() {
		s.logger.Info(ctx, "pull discarded, local data changed meanwhile")
		return nil
	}

	if err := s.kv.SetJSON(ctx, localstore.KeyTasks, tasks); err != nil {
		return err
	}
	s.state.SetTasks(tasks)

	if fitness != nil {
		if err := s.kv.SetJSON(ctx, localstore.KeyFitness, fitness); err != nil {
			return err
		}
		s.state.SetFitness(fitness)
	}
	if finances != nil {
		if err := s.kv.SetJSON(ctx, localstore.KeyFinances, finances); err != nil {
			return err
		}
		s.state.SetFinances(finances)
	}

	s.logger.Info(ctx, "local cache refreshed", "tasks", len(tasks))
	return nil
}

func (s *DataService) Export(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.remote(ctx, func(token string) (err error) {
		out, err = s.api.Export(ctx, token)
		return err
	})
	return out, err
}

func (s *DataService) PremiumStatus(ctx context.Context) (*models.PremiumStatus, error) {
	var out *models.PremiumStatus
	err := s.remote(ctx, func(token string) (err error) {
		out, err = s.api.PremiumStatus(ctx, token)
		return err
	})
	return out, err
}

func (s *DataService) Backup(ctx context.Context) (*models.BackupResult, error) {
	var out *models.BackupResult
	err := s.remote(ctx, func(token string) (err error) {
		out, err = s.api.Backup(ctx, token)
		return err
	})
	return out, err
}

// DownloadBackup fetches a backup created by Backup.
func (s *DataService) DownloadBackup(ctx context.Context, res *models.BackupResult) ([]byte, error) {
	if res == nil || res.URL == "" {
		return nil, fmt.Errorf("%w: no backup link", common.ErrValidation)
	}
	if !s.now().Before(res.ExpiresAt) && !res.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: backup link expired", common.ErrValidation)
	}
	return s.api.Download(ctx, res.URL)
}

// DeleteAccount removes the account on the server, drops queued changes
// and logs out.
func (s *DataService) DeleteAccount(ctx context.Context) error {
	err := s.remote(ctx, func(token string) error {
		return s.api.DeleteAccount(ctx, token)
	})
	if err != nil {
		return err
	}
	if err := s.queue.Clear(ctx); err != nil {
		s.logger.Warn(ctx, "clear queue failed", "error", err)
	}
	return s.session.Logout(ctx)
}

// remote runs an online-only call with the current token. A rejected token
// forces a logout.
func (s *DataService) remote(ctx context.Context, fn func(token string) error) error {
	if !s.session.IsAuthenticated() {
		return fmt.Errorf("%w: not logged in", common.ErrUnauthorized)
	}
	if !s.conn.Online() {
		return fmt.Errorf("%w: offline", common.ErrUnavailable)
	}

	err := fn(s.session.CurrentToken())
	if common.Classify(err) == common.KindUnauthorized {
		if lerr := s.session.HandleUnauthorized(ctx); lerr != nil {
			s.logger.Error(ctx, "forced logout failed", "error", lerr)
		}
	}
	return err
}
