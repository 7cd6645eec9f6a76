package ring

import (
	"context"
	"slices"
)

const mimeTextPlain = "text/plain"

// Entries returns a copy of the interaction log in arrival order.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Conversation returns the interactions received by accountID from
// contact, most recent first.
func (m *Manager) Conversation(accountID, contact string) []Interaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return conversation(m.entries, accountID, contact)
}

// Conversation filters a snapshot the same way Manager.Conversation does.
func (s Snapshot) Conversation(accountID, contact string) []Interaction {
	return conversation(s.Entries, accountID, contact)
}

func conversation(entries []Entry, accountID, contact string) []Interaction {
	var out []Interaction
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.AccountID == accountID && e.Interaction.Author == contact {
			out = append(out, e.Interaction)
		}
	}
	return out
}

func (m *Manager) appendEntry(accountID string, in Interaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{AccountID: accountID, Interaction: in})
}

// SendText sends a plain-text message and returns the daemon's interaction
// id, or 0 if nothing was sent. Sent messages are not added to the log.
func (m *Manager) SendText(ctx context.Context, from, to, body string) uint64 {
	payloads := map[string]string{mimeTextPlain: body}
	reply, ok := m.configuration(ctx, "sendTextMessage", from, to, payloads)
	if !ok {
		return 0
	}
	var id uint64
	if !m.decode("sendTextMessage", reply, &id) {
		return 0
	}
	return id
}
