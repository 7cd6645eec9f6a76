package ring

import (
	"context"
	"fmt"

	"github.com/jask/ruring/internal/bus"
)

const registeredState = "REGISTERED"

// Notification members of the configuration interface.
const (
	memberAccountsChanged          = "accountsChanged"
	memberRegistrationStateChanged = "registrationStateChanged"
	memberIncomingAccountMessage   = "incomingAccountMessage"
	memberIncomingTrustRequest     = "incomingTrustRequest"
)

type signalKind int

const (
	signalUnknown signalKind = iota
	signalAccountsChanged
	signalRegistrationChanged
	signalIncomingMessage
	signalIncomingTrustRequest
)

func (k signalKind) String() string {
	switch k {
	case signalAccountsChanged:
		return memberAccountsChanged
	case signalRegistrationChanged:
		return memberRegistrationStateChanged
	case signalIncomingMessage:
		return memberIncomingAccountMessage
	case signalIncomingTrustRequest:
		return memberIncomingTrustRequest
	default:
		return "unknown"
	}
}

func (m *Manager) classify(sig bus.Signal) signalKind {
	if sig.Interface != m.ep.ConfigurationInterface {
		return signalUnknown
	}
	switch sig.Member {
	case memberAccountsChanged:
		return signalAccountsChanged
	case memberRegistrationStateChanged:
		return signalRegistrationChanged
	case memberIncomingAccountMessage:
		return signalIncomingMessage
	case memberIncomingTrustRequest:
		return signalIncomingTrustRequest
	default:
		return signalUnknown
	}
}

// HandleSignals subscribes to the daemon's notifications and applies them
// to the manager one at a time, in arrival order, until ctx is done or the
// subscription ends. It fails only if the subscription cannot be opened.
func (m *Manager) HandleSignals(ctx context.Context, sub bus.Subscriber) error {
	iface := m.ep.ConfigurationInterface
	signals, err := sub.Subscribe(ctx,
		bus.Match{Interface: iface, Member: memberIncomingAccountMessage},
		bus.Match{Interface: iface, Member: memberIncomingTrustRequest},
		bus.Match{Interface: iface, Member: memberAccountsChanged},
		bus.Match{Interface: iface, Member: memberRegistrationStateChanged},
	)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	m.log.Info("listening for daemon signals", "interface", iface)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				m.log.Info("signal stream closed")
				return nil
			}
			m.handleSignal(ctx, sig)
		}
	}
}

// handleSignal applies exactly one effect for sig.
func (m *Manager) handleSignal(ctx context.Context, sig bus.Signal) {
	kind := m.classify(sig)
	switch kind {
	case signalAccountsChanged:
		m.RefreshAccounts(ctx)

	case signalRegistrationChanged:
		var id, state string
		if err := bus.Decode(sig.Body, &id, &state); err != nil {
			m.log.Warn("bad notification", "signal", kind, "err", err)
			return
		}
		if !m.applyRegistration(id, state) {
			m.log.Debug("registration for unknown account", "account", id, "state", state)
		}

	case signalIncomingMessage:
		var (
			id, author string
			payloads   map[string]string
		)
		if err := bus.Decode(sig.Body, &id, &author, &payloads); err != nil {
			m.log.Warn("bad notification", "signal", kind, "err", err)
			return
		}
		in := Interaction{
			ID:     m.newID(),
			Author: author,
			Body:   payloads[mimeTextPlain],
			Time:   m.now(),
		}
		m.appendEntry(id, in)
		m.log.Info("new interaction", "account", id, "author", author)
		m.emit(Notice{Kind: NoticeMessage, AccountID: id, From: author, Body: in.Body, InteractionID: in.ID})

	case signalIncomingTrustRequest:
		var id, from string
		if err := bus.Decode(sig.Body, &id, &from); err != nil {
			m.log.Warn("bad notification", "signal", kind, "err", err)
			return
		}
		m.log.Info("new trust request", "account", id, "from", from)
		m.emit(Notice{Kind: NoticeTrustRequest, AccountID: id, From: from})

	default:
		m.log.Debug("ignored signal", "name", sig.Name())
	}
}

func (m *Manager) emit(n Notice) {
	if m.notify != nil {
		m.notify(n)
	}
}
