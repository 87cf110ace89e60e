package syncworker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/ontop/internal/client/api"
	"github.com/dmitrijs2005/ontop/internal/client/localstore"
	"github.com/dmitrijs2005/ontop/internal/client/syncqueue"
	"github.com/dmitrijs2005/ontop/internal/common"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu      sync.Mutex
	results map[string]error
	sent    []string
	block   chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, token, method, endpoint string, payload json.RawMessage) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, endpoint)
	return f.results[endpoint]
}

type fakeSession struct {
	authed    atomic.Bool
	uid       int64
	loggedOut atomic.Int32
}

func (s *fakeSession) IsAuthenticated() bool { return s.authed.Load() }
func (s *fakeSession) CurrentToken() string  { return "tok" }
func (s *fakeSession) CurrentUserID() int64  { return s.uid }
func (s *fakeSession) HandleUnauthorized(context.Context) error {
	s.loggedOut.Add(1)
	s.authed.Store(false)
	return nil
}

type fakeConn struct{ online atomic.Bool }

func (c *fakeConn) Online() bool { return c.online.Load() }

type harness struct {
	q    *syncqueue.Queue
	kv   *localstore.Store
	api  *fakeSender
	sess *fakeSession
	conn *fakeConn
	w    *Worker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv, err := localstore.Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	h := &harness{
		kv:   kv,
		q:    syncqueue.New(kv, logging.Discard()),
		api:  &fakeSender{results: map[string]error{}},
		sess: &fakeSession{uid: 1},
		conn: &fakeConn{},
	}
	h.sess.authed.Store(true)
	h.conn.online.Store(true)
	h.w = New(h.q, h.api, h.sess, h.conn, time.Hour, logging.Discard())
	return h
}

func (h *harness) enqueue(t *testing.T, endpoint string, owner int64) syncqueue.Mutation {
	t.Helper()
	m, err := syncqueue.NewMutation(http.MethodPost, endpoint, map[string]string{"e": endpoint}, owner, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.q.Enqueue(context.Background(), m))
	return m
}

func (h *harness) persisted(t *testing.T) []string {
	t.Helper()
	var items []syncqueue.Mutation
	_, err := h.kv.GetJSON(context.Background(), localstore.KeySyncQueue, &items)
	require.NoError(t, err)
	out := []string{}
	for _, m := range items {
		out = append(out, m.Endpoint)
	}
	return out
}

func TestDrain_NoOpWhenNotReady(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rep, err := h.w.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)

	h.enqueue(t, "/tasks", 1)
	h.conn.online.Store(false)
	rep, _ = h.w.Drain(ctx)
	assert.Zero(t, rep.Attempted)

	h.conn.online.Store(true)
	h.sess.authed.Store(false)
	rep, _ = h.w.Drain(ctx)
	assert.Zero(t, rep.Attempted)
	assert.Equal(t, 1, h.q.Len())
	assert.Empty(t, h.api.sent)
}

func TestDrain_ClassifiesOutcomes(t *testing.T) {
	h := newHarness(t)
	h.api.results["/flaky"] = fmt.Errorf("%w: dial", common.ErrUnavailable)
	h.api.results["/boom"] = fmt.Errorf("%w: 500", common.ErrServer)
	h.api.results["/bad"] = fmt.Errorf("%w: 400", common.ErrValidation)
	h.api.results["/dup"] = fmt.Errorf("%w: 409", common.ErrConflict)

	h.enqueue(t, "/tasks", 1)
	h.enqueue(t, "/flaky", 1)
	h.enqueue(t, "/bad", 1)
	h.enqueue(t, "/other", 2)
	h.enqueue(t, "/dup", 1)
	h.enqueue(t, "/boom", 1)
	h.enqueue(t, "/anon", 0)

	rep, err := h.w.Drain(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{Attempted: 6, Delivered: 2, Requeued: 2, Dropped: 3}, rep)
	assert.Equal(t, []string{"/tasks", "/flaky", "/bad", "/dup", "/boom", "/anon"}, h.api.sent)
	assert.Equal(t, []string{"/flaky", "/boom"}, h.persisted(t))
	assert.Equal(t, 2, h.q.Len())
}

func TestDrain_UnauthorizedForcesLogoutAndKeepsRest(t *testing.T) {
	h := newHarness(t)
	h.api.results["/expired"] = fmt.Errorf("%w: 403", common.ErrUnauthorized)

	h.enqueue(t, "/tasks", 1)
	h.enqueue(t, "/expired", 1)
	h.enqueue(t, "/fitness", 1)
	h.enqueue(t, "/finances", 1)

	rep, err := h.w.Drain(context.Background())
	require.NoError(t, err)

	assert.True(t, rep.LoggedOut)
	assert.Equal(t, 1, rep.Delivered)
	assert.Equal(t, 3, rep.Requeued)
	assert.Equal(t, int32(1), h.sess.loggedOut.Load())
	assert.Equal(t, []string{"/tasks", "/expired"}, h.api.sent)
	assert.Equal(t, []string{"/expired", "/fitness", "/finances"}, h.persisted(t))
}

func TestDrain_IsExclusive(t *testing.T) {
	h := newHarness(t)
	h.api.block = make(chan struct{})
	h.enqueue(t, "/tasks", 1)

	first := make(chan Report)
	go func() {
		rep, _ := h.w.Drain(context.Background())
		first <- rep
	}()

	require.Eventually(t, h.w.draining.Load, time.Second, time.Millisecond)
	rep, err := h.w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)

	close(h.api.block)
	assert.Equal(t, 1, (<-first).Delivered)
	assert.Equal(t, []string{"/tasks"}, h.api.sent)
}

func TestDrain_CanceledContextRequeuesRemainder(t *testing.T) {
	h := newHarness(t)
	h.enqueue(t, "/tasks", 1)
	h.enqueue(t, "/fitness", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := h.w.Drain(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, rep.Requeued)
	assert.Equal(t, []string{"/tasks", "/fitness"}, h.persisted(t))
}

func TestRun_TriggerDrains(t *testing.T) {
	h := newHarness(t)
	h.enqueue(t, "/tasks", 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.w.Run(ctx)

	h.w.Trigger()
	h.w.Trigger()
	require.Eventually(t, func() bool {
		var items []syncqueue.Mutation
		ok, err := h.kv.GetJSON(context.Background(), localstore.KeySyncQueue, &items)
		return err == nil && ok && len(items) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, h.q.Len())
}

func TestDrain_ThrottledOrTimedOutIsRequeued(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusRequestTimeout} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"success":false,"error":"slow down"}`))
			}))
			defer srv.Close()

			h := newHarness(t)
			h.w = New(h.q, api.New(srv.URL, time.Second), h.sess, h.conn, time.Hour, logging.Discard())
			m := h.enqueue(t, "/tasks", 1)

			rep, err := h.w.Drain(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Report{Attempted: 1, Requeued: 1}, rep)
			assert.Equal(t, 1, h.q.Len())
			assert.Equal(t, []string{"/tasks"}, h.persisted(t))
			assert.Equal(t, m.ID, h.q.Pending()[0].ID)
		})
	}
}
