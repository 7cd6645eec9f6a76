// Package ring holds the client-side state of the daemon: the account list
// and the log of received interactions, kept current by the signal
// dispatch loop and exposed together with the daemon's RPC operations.
package ring

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jask/ruring/internal/bus"
)

// DefaultTimeout bounds every bus call.
const DefaultTimeout = 2 * time.Second

// Endpoints locates the daemon objects on the bus.
type Endpoints struct {
	ConfigurationPath      string
	ConfigurationInterface string
	CallPath               string
	CallInterface          string
}

// DefaultEndpoints returns the daemon's well-known object paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ConfigurationPath:      "/cx/ring/Ring/ConfigurationManager",
		ConfigurationInterface: "cx.ring.Ring.ConfigurationManager",
		CallPath:               "/cx/ring/Ring/CallManager",
		CallInterface:          "cx.ring.Ring.CallManager",
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock sets the time source used to stamp interactions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithNotifier registers fn to receive notices about incoming messages and
// trust requests. fn is called from the dispatch goroutine without the
// state lock held.
func WithNotifier(fn func(Notice)) Option {
	return func(m *Manager) {
		m.notify = fn
	}
}

// WithEndpoints overrides the daemon object paths and interfaces.
func WithEndpoints(ep Endpoints) Option {
	return func(m *Manager) {
		m.ep = ep
	}
}

// Manager owns the account list and interaction log. All access to them
// goes through one mutex; readers receive copies.
type Manager struct {
	caller  bus.Caller
	ep      Endpoints
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time
	notify  func(Notice)
	newID   func() string

	// refreshMu orders full refreshes; it is never taken while mu is held.
	refreshMu sync.Mutex

	mu       sync.Mutex
	accounts []Account
	entries  []Entry
}

// New builds a Manager on top of caller and loads the account list. A
// failed initial load is logged and leaves the list empty.
func New(ctx context.Context, caller bus.Caller, opts ...Option) (*Manager, error) {
	if caller == nil {
		return nil, errors.New("ring: nil bus caller")
	}
	m := &Manager{
		caller:  caller,
		ep:      DefaultEndpoints(),
		timeout: DefaultTimeout,
		log:     slog.New(slog.DiscardHandler),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.RefreshAccounts(ctx)
	return m, nil
}

// Snapshot copies the account list and interaction log in one critical
// section.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Accounts: slices.Clone(m.accounts),
		Entries:  slices.Clone(m.entries),
	}
}

// call runs one bounded bus call. Failures are logged and reported as false.
func (m *Manager) call(ctx context.Context, path, iface, method string, args ...any) ([]any, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	body, err := m.caller.Call(ctx, path, iface, method, args...)
	if err != nil {
		m.log.Error("bus call failed", "method", method, "err", err)
		return nil, false
	}
	return body, true
}

func (m *Manager) configuration(ctx context.Context, method string, args ...any) ([]any, bool) {
	return m.call(ctx, m.ep.ConfigurationPath, m.ep.ConfigurationInterface, method, args...)
}

func (m *Manager) decode(method string, body []any, dst ...any) bool {
	if err := bus.Decode(body, dst...); err != nil {
		m.log.Warn("unexpected reply", "method", method, "err", err)
		return false
	}
	return true
}
