// Package bustest provides an in-memory bus for tests.
package bustest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jask/ruring/internal/bus"
)

// ErrNoReply is returned for methods that have no configured reply.
var ErrNoReply = errors.New("bustest: no reply configured")

// Call records one method call.
type Call struct {
	Path      string
	Interface string
	Method    string
	Args      []any
}

// Handler computes a reply from the call arguments.
type Handler func(args []any) ([]any, error)

// Fake implements bus.Conn in memory. Replies are keyed by method name.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []Call
	subs     []chan bus.Signal
	matches  []bus.Match
	ready    chan struct{}
	once     sync.Once
	closed   bool
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		handlers: make(map[string]Handler),
		ready:    make(chan struct{}),
	}
}

// Reply makes method return body.
func (f *Fake) Reply(method string, body ...any) {
	f.Handle(method, func([]any) ([]any, error) { return body, nil })
}

// Fail makes method return err.
func (f *Fake) Fail(method string, err error) {
	f.Handle(method, func([]any) ([]any, error) { return nil, err })
}

// Handle installs fn as the responder for method.
func (f *Fake) Handle(method string, fn Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = fn
}

// Call implements bus.Caller.
func (f *Fake) Call(ctx context.Context, path, iface, method string, args ...any) ([]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Path: path, Interface: iface, Method: method, Args: append([]any(nil), args...)})
	fn, ok := f.handlers[method]
	closed := f.closed
	f.mu.Unlock()

	if closed {
		return nil, bus.ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoReply, method)
	}
	return fn(args)
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls of one method.
func (f *Fake) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Subscribe implements bus.Subscriber.
func (f *Fake) Subscribe(ctx context.Context, matches ...bus.Match) (<-chan bus.Signal, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, bus.ErrUnavailable
	}
	ch := make(chan bus.Signal, 64)
	f.subs = append(f.subs, ch)
	f.matches = append(f.matches, matches...)
	f.mu.Unlock()
	f.once.Do(func() { close(f.ready) })

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s == ch {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch, nil
}

// Subscribed is closed once the first subscription is open.
func (f *Fake) Subscribed() <-chan struct{} {
	return f.ready
}

// Matches returns the match rules requested so far.
func (f *Fake) Matches() []bus.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bus.Match(nil), f.matches...)
}

// Emit delivers sig to every open subscription that matches it.
func (f *Fake) Emit(sig bus.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.matchesLocked(sig) {
		return
	}
	for _, ch := range f.subs {
		ch <- sig
	}
}

func (f *Fake) matchesLocked(sig bus.Signal) bool {
	if len(f.matches) == 0 {
		return true
	}
	for _, m := range f.matches {
		if m.Interface == sig.Interface && (m.Member == "" || m.Member == sig.Member) {
			return true
		}
	}
	return false
}

// Close implements bus.Conn. Later calls fail with bus.ErrUnavailable.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

var _ bus.Conn = (*Fake)(nil)
