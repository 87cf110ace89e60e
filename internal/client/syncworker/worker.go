// Package syncworker replays queued mutations against the server. Only one
// drain runs at a time; extra triggers while draining are ignored.
package syncworker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/ontop/internal/client/syncqueue"
	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/logging"
)

const DefaultInterval = 5 * time.Minute

type Sender interface {
	Send(ctx context.Context, token, method, endpoint string, payload json.RawMessage) error
}

type Session interface {
	IsAuthenticated() bool
	CurrentToken() string
	CurrentUserID() int64
	HandleUnauthorized(ctx context.Context) error
}

type Connectivity interface {
	Online() bool
}

type Queue interface {
	Len() int
	DrainAll() []syncqueue.Mutation
	Ack(id string)
	Requeue(ctx context.Context, m syncqueue.Mutation) error
	Persist(ctx context.Context) error
}

// Report summarizes one drain.
type Report struct {
	Attempted int
	Delivered int
	Requeued  int
	Dropped   int
	LoggedOut bool
}

type Worker struct {
	queue    Queue
	api      Sender
	session  Session
	conn     Connectivity
	logger   logging.Logger
	interval time.Duration

	draining atomic.Bool
	trigger  chan struct{}
}

func New(q Queue, api Sender, sess Session, conn Connectivity, interval time.Duration, logger logging.Logger) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		queue:    q,
		api:      api,
		session:  sess,
		conn:     conn,
		logger:   logger.With("module", "syncworker"),
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger asks Run for a drain without waiting for it.
func (w *Worker) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run drains on every tick and every trigger until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.trigger:
		}
		if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error(ctx, "drain failed", "error", err)
		}
	}
}

// Drain delivers the current snapshot of the queue once.
func (w *Worker) Drain(ctx context.Context) (Report, error) {
	var rep Report

	if !w.draining.CompareAndSwap(false, true) {
		w.logger.Debug(ctx, "drain already running")
		return rep, nil
	}
	defer w.draining.Store(false)

	if !w.conn.Online() || !w.session.IsAuthenticated() || w.queue.Len() == 0 {
		return rep, nil
	}

	batch := w.queue.DrainAll()
	token := w.session.CurrentToken()
	uid := w.session.CurrentUserID()

	for i, m := range batch {
		if err := ctx.Err(); err != nil {
			w.requeueAll(context.WithoutCancel(ctx), batch[i:], &rep)
			w.finish(context.WithoutCancel(ctx), rep)
			return rep, err
		}

		if m.Owner != 0 && m.Owner != uid {
			w.logger.Info(ctx, "dropping mutation of another user", "id", m.ID, "endpoint", m.Endpoint)
			w.queue.Ack(m.ID)
			rep.Dropped++
			continue
		}

		rep.Attempted++
		err := w.api.Send(ctx, token, m.Method, m.Endpoint, m.Payload)
		kind := common.Classify(err)

		switch {
		case kind == common.KindNone:
			w.queue.Ack(m.ID)
			rep.Delivered++

		case kind == common.KindUnauthorized:
			rep.LoggedOut = true
			if lerr := w.session.HandleUnauthorized(ctx); lerr != nil {
				w.logger.Error(ctx, "forced logout failed", "error", lerr)
			}
			w.requeueAll(ctx, batch[i:], &rep)
			w.finish(ctx, rep)
			return rep, nil

		case common.Retryable(kind):
			w.logger.Warn(ctx, "delivery failed, will retry", "id", m.ID, "endpoint", m.Endpoint, "error", err)
			if rerr := w.queue.Requeue(ctx, m); rerr != nil {
				w.logger.Error(ctx, "requeue failed", "id", m.ID, "error", rerr)
			}
			rep.Requeued++

		default:
			w.logger.Warn(ctx, "mutation rejected, dropping", "id", m.ID, "endpoint", m.Endpoint, "kind", kind.String(), "error", err)
			w.queue.Ack(m.ID)
			rep.Dropped++
		}
	}

	w.finish(ctx, rep)
	return rep, nil
}

func (w *Worker) requeueAll(ctx context.Context, rest []syncqueue.Mutation, rep *Report) {
	for _, m := range rest {
		if err := w.queue.Requeue(ctx, m); err != nil {
			w.logger.Error(ctx, "requeue failed", "id", m.ID, "error", err)
		}
		rep.Requeued++
	}
}

func (w *Worker) finish(ctx context.Context, rep Report) {
	if err := w.queue.Persist(ctx); err != nil {
		w.logger.Error(ctx, "persist queue failed", "error", err)
	}
	w.logger.Info(ctx, "drain finished",
		"attempted", rep.Attempted, "delivered", rep.Delivered,
		"requeued", rep.Requeued, "dropped", rep.Dropped, "logged_out", rep.LoggedOut)
}
