// Package syncqueue is the durable FIFO of mutations that could not be
// delivered yet. Entries taken by a drain stay in the persisted image until
// they are acknowledged or requeued, so a crash mid-drain loses nothing.
package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ontop/internal/client/localstore"
	"github.com/dmitrijs2005/ontop/internal/logging"
	"github.com/google/uuid"
)

// Mutation is one pending write against the REST surface.
type Mutation struct {
	ID         string          `json:"id"`
	Endpoint   string          `json:"endpoint"`
	Method     string          `json:"method"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	// Owner is the user that produced the mutation, 0 when nobody was
	// logged in.
	Owner int64 `json:"owner"`
}

// NewMutation encodes payload and stamps the mutation with a fresh id.
func NewMutation(method, endpoint string, payload any, owner int64, now time.Time) (Mutation, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Mutation{}, fmt.Errorf("encode payload: %w", err)
	}
	return Mutation{
		ID:         uuid.NewString(),
		Endpoint:   endpoint,
		Method:     method,
		Payload:    raw,
		EnqueuedAt: now,
		Owner:      owner,
	}, nil
}

// KV is the part of the local store the queue persists through.
type KV interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

type Queue struct {
	kv     KV
	logger logging.Logger

	mu       sync.Mutex
	pending  []Mutation
	inflight []Mutation
}

func New(kv KV, logger logging.Logger) *Queue {
	return &Queue{kv: kv, logger: logger.With("module", "syncqueue")}
}

// Load replaces the in-memory queue with the persisted image. Entries that
// were in flight when the process stopped come back as pending, first.
func (q *Queue) Load(ctx context.Context) error {
	var items []Mutation
	if _, err := q.kv.GetJSON(ctx, localstore.KeySyncQueue, &items); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = items
	q.inflight = nil
	q.logger.Debug(ctx, "queue loaded", "len", len(items))
	return nil
}

// Enqueue appends m and persists before returning.
func (q *Queue) Enqueue(ctx context.Context, m Mutation) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, m)
	return q.persistLocked(ctx)
}

// DrainAll moves every pending entry to the in-flight set and returns them
// in order. Entries enqueued afterwards are not part of the snapshot.
func (q *Queue) DrainAll() []Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()

	snapshot := q.pending
	q.pending = nil
	q.inflight = append(q.inflight, snapshot...)

	return append([]Mutation(nil), snapshot...)
}

// Ack removes a delivered or discarded entry from the in-flight set. The
// change reaches disk with the next persist.
func (q *Queue) Ack(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight, _ = remove(q.inflight, id)
}

// Requeue moves m from the in-flight set to the end of the pending list,
// so it is retried on the next cycle.
func (q *Queue) Requeue(ctx context.Context, m Mutation) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight, _ = remove(q.inflight, m.ID)
	q.pending = append(q.pending, m)
	return q.persistLocked(ctx)
}

func (q *Queue) Persist(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.persistLocked(ctx)
}

// Len counts pending and in-flight entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) + len(q.inflight)
}

// Pending returns a copy of the entries waiting for the next drain.
func (q *Queue) Pending() []Mutation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Mutation(nil), q.pending...)
}

func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending, q.inflight = nil, nil
	return q.persistLocked(ctx)
}

// persistLocked writes in-flight entries, then pending ones.
func (q *Queue) persistLocked(ctx context.Context) error {
	image := make([]Mutation, 0, len(q.inflight)+len(q.pending))
	image = append(image, q.inflight...)
	image = append(image, q.pending...)

	if err := q.kv.SetJSON(ctx, localstore.KeySyncQueue, image); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}
	return nil
}

func remove(items []Mutation, id string) ([]Mutation, bool) {
	for i := range items {
		if items[i].ID == id {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}
