package ring

import "context"

// PlaceCall starts a call from accountID to destination and returns the
// call id, or "" if no call was placed.
func (m *Manager) PlaceCall(ctx context.Context, accountID, destination string) string {
	reply, ok := m.call(ctx, m.ep.CallPath, m.ep.CallInterface, "placeCall", accountID, "ring:"+destination)
	if !ok {
		return ""
	}
	var id string
	if !m.decode("placeCall", reply, &id) {
		return ""
	}
	m.log.Info("call placed", "account", accountID, "destination", destination, "call", id)
	return id
}
