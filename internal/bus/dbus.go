package bus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Session is a Conn backed by a D-Bus connection.
type Session struct {
	conn   *dbus.Conn
	dest   string
	buffer int
	log    *slog.Logger
}

// Dial connects to the bus at address, or to the session bus when address
// is empty. Calls are addressed to the dest service name. Signals are
// delivered in the order the bus sent them, even when the subscriber lags.
func Dial(address, dest string, buffer int, log *slog.Logger) (*Session, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	opt := dbus.WithSignalHandler(dbus.NewSequentialSignalHandler())
	if address == "" {
		conn, err = dbus.ConnectSessionBus(opt)
	} else {
		conn, err = dbus.Connect(address, opt)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if buffer <= 0 {
		buffer = 64
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{conn: conn, dest: dest, buffer: buffer, log: log}, nil
}

// Call invokes iface.method on the object at path and returns the reply body.
func (s *Session) Call(ctx context.Context, path, iface, method string, args ...any) ([]any, error) {
	objPath := dbus.ObjectPath(path)
	if !objPath.IsValid() || iface == "" || method == "" {
		return nil, fmt.Errorf("%w: cannot call %s.%s on %q", ErrMalformed, iface, method, path)
	}
	call := s.conn.Object(s.dest, objPath).CallWithContext(ctx, iface+"."+method, 0, args...)
	if call.Err != nil {
		return nil, fmt.Errorf("call %s.%s: %w", iface, method, call.Err)
	}
	return call.Body, nil
}

// Subscribe registers one match rule per entry and forwards matching
// signals until ctx is done.
func (s *Session) Subscribe(ctx context.Context, matches ...Match) (<-chan Signal, error) {
	for _, m := range matches {
		opts := []dbus.MatchOption{dbus.WithMatchInterface(m.Interface)}
		if m.Member != "" {
			opts = append(opts, dbus.WithMatchMember(m.Member))
		}
		if err := s.conn.AddMatchSignalContext(ctx, opts...); err != nil {
			return nil, fmt.Errorf("add match %s.%s: %w", m.Interface, m.Member, err)
		}
	}

	raw := make(chan *dbus.Signal, s.buffer)
	s.conn.Signal(raw)
	out := make(chan Signal, s.buffer)

	go func() {
		defer close(out)
		defer s.conn.RemoveSignal(raw)
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-raw:
				if !ok {
					return
				}
				if sig == nil {
					continue
				}
				iface, member := splitName(sig.Name)
				s.log.Debug("bus signal", "interface", iface, "member", member, "path", sig.Path)
				select {
				case out <- Signal{Path: string(sig.Path), Interface: iface, Member: member, Body: sig.Body}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

func splitName(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
