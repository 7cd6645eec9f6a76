// Package bus is the boundary to the daemon: synchronous method calls and a
// stream of matched push notifications over an inter-process message bus.
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

var (
	// ErrUnavailable reports that no connection to the bus could be made.
	ErrUnavailable = errors.New("bus unavailable")
	// ErrMalformed reports a request that could not be built or a reply
	// that does not have the expected shape.
	ErrMalformed = errors.New("malformed bus message")
)

// Caller performs request/response calls against an object on the bus.
type Caller interface {
	Call(ctx context.Context, path, iface, method string, args ...any) ([]any, error)
}

// Subscriber opens a stream of push notifications matching any of the given
// rules. The channel is closed when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, matches ...Match) (<-chan Signal, error)
}

// Conn is a full bus connection.
type Conn interface {
	Caller
	Subscriber
	Close() error
}

// Match selects notifications by interface and member name.
type Match struct {
	Interface string
	Member    string
}

// Signal is one push notification received from the bus.
type Signal struct {
	Path      string
	Interface string
	Member    string
	Body      []any
}

// Name returns the fully qualified member name.
func (s Signal) Name() string {
	return s.Interface + "." + s.Member
}

// Decode stores the leading values of body into dst. Extra trailing values
// are ignored; missing or mistyped values yield ErrMalformed.
func Decode(body []any, dst ...any) error {
	if len(body) < len(dst) {
		return fmt.Errorf("%w: want %d values, got %d", ErrMalformed, len(dst), len(body))
	}
	if err := dbus.Store(body[:len(dst)], dst...); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
