// Package connectivity tracks whether the server is reachable. Readers never
// block; transitions from offline to online wake the registered listeners.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/ontop/internal/logging"
)

type State string

const (
	Offline State = "offline"
	Online  State = "online"
)

// ProbeTimeout bounds a single reachability check.
const ProbeTimeout = 3 * time.Second

type Monitor struct {
	online    atomic.Bool
	mu        sync.Mutex
	listeners []func()
	logger    logging.Logger
}

// New returns a monitor that starts Offline until the first probe succeeds.
func New(logger logging.Logger) *Monitor {
	return &Monitor{logger: logger.With("module", "connectivity")}
}

func (m *Monitor) Online() bool { return m.online.Load() }

func (m *Monitor) State() State {
	if m.Online() {
		return Online
	}
	return Offline
}

// OnOnline registers fn to run, in its own goroutine, on every
// offline-to-online transition.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Set records the latest observation.
func (m *Monitor) Set(online bool) {
	prev := m.online.Swap(online)
	if prev == online {
		return
	}

	ctx := context.Background()
	if !online {
		m.logger.Info(ctx, "switched to offline mode")
		return
	}
	m.logger.Info(ctx, "switched to online mode")

	m.mu.Lock()
	fns := append([]func(){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range fns {
		go fn()
	}
}

// Watch probes immediately and then every interval until ctx is done.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, probe func(ctx context.Context) error) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
		err := probe(pctx)
		cancel()
		if err != nil && ctx.Err() == nil {
			m.logger.Debug(ctx, "probe failed", "error", err)
		}
		if ctx.Err() == nil {
			m.Set(err == nil)
		}
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
