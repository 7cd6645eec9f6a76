package ring

import "context"

// Contacts returns the confirmed contacts of an account, queried live.
func (m *Manager) Contacts(ctx context.Context, accountID string) []string {
	return m.listField(ctx, "getContacts", "id", accountID)
}

// PendingRequests returns the senders of pending trust requests, queried
// live.
func (m *Manager) PendingRequests(ctx context.Context, accountID string) []string {
	return m.listField(ctx, "getTrustRequests", "from", accountID)
}

func (m *Manager) listField(ctx context.Context, method, key, accountID string) []string {
	body, ok := m.configuration(ctx, method, accountID)
	if !ok {
		return nil
	}
	var rows []map[string]string
	if !m.decode(method, body, &rows) {
		return nil
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[key]; ok {
			out = append(out, v)
		}
	}
	return out
}

// AddContact adds contact to an account.
func (m *Manager) AddContact(ctx context.Context, accountID, contact string) bool {
	_, ok := m.configuration(ctx, "addContact", accountID, contact)
	return ok
}

// RemoveContact removes contact from an account, banning it when banned is
// set.
func (m *Manager) RemoveContact(ctx context.Context, accountID, contact string, banned bool) bool {
	_, ok := m.configuration(ctx, "removeContact", accountID, contact, banned)
	return ok
}

// RespondToRequest accepts or discards a pending trust request and returns
// the daemon's verdict.
func (m *Manager) RespondToRequest(ctx context.Context, accountID, from string, accept bool) bool {
	method := "discardTrustRequest"
	if accept {
		method = "acceptTrustRequest"
	}
	body, ok := m.configuration(ctx, method, accountID, from, accept)
	if !ok {
		return false
	}
	var done bool
	if !m.decode(method, body, &done) {
		return false
	}
	return done
}

// SendTrustRequest invites to to become a contact of from.
func (m *Manager) SendTrustRequest(ctx context.Context, from, to string) bool {
	_, ok := m.configuration(ctx, "sendTrustMessage", from, to, []byte{0})
	return ok
}
