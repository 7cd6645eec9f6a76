package ring

import (
	"context"
	"slices"
)

// Account detail keys understood by the daemon.
const (
	detailEnable          = "Account.enable"
	detailAlias           = "Account.alias"
	detailUsername        = "Account.username"
	detailType            = "Account.type"
	detailArchivePath     = "Account.archivePath"
	detailArchivePassword = "Account.archivePassword"
)

// Accounts returns a copy of the current account list.
func (m *Manager) Accounts() []Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.accounts)
}

// Account returns the account with the given id, if present.
func (m *Manager) Account(id string) (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}

// RefreshAccounts reloads the full account list from the daemon and swaps
// it in. Any failure leaves the current list untouched and returns false.
func (m *Manager) RefreshAccounts(ctx context.Context) bool {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	body, ok := m.configuration(ctx, "getAccountList")
	if !ok {
		return false
	}
	var ids []string
	if !m.decode("getAccountList", body, &ids) {
		return false
	}

	list := make([]Account, 0, len(ids))
	for _, id := range ids {
		a, ok := m.fetchAccount(ctx, id)
		if !ok {
			m.log.Warn("account refresh aborted", "account", id)
			return false
		}
		list = append(list, a)
	}

	m.mu.Lock()
	m.accounts = list
	m.mu.Unlock()
	m.log.Debug("accounts refreshed", "count", len(list))
	return true
}

func (m *Manager) fetchAccount(ctx context.Context, id string) (Account, bool) {
	body, ok := m.configuration(ctx, "getAccountDetails", id)
	if !ok {
		return Account{}, false
	}
	var details map[string]string
	if !m.decode("getAccountDetails", body, &details) {
		return Account{}, false
	}
	return accountFromDetails(id, details), true
}

func accountFromDetails(id string, details map[string]string) Account {
	a := Account{ID: id, Enabled: true}
	if v, ok := details[detailEnable]; ok {
		a.Enabled = v == "true"
	}
	a.Alias = details[detailAlias]
	a.RingID = details[detailUsername]
	return a
}

// SetAccountEnabled asks the daemon to (un)register an account. The local
// list changes only when the resulting registration notification arrives.
func (m *Manager) SetAccountEnabled(ctx context.Context, id string, enable bool) bool {
	_, ok := m.configuration(ctx, "sendRegister", id, enable)
	return ok
}

// AddAccount creates a new account, or imports one from an archive when
// fromArchive is set, in which case primary is the archive path. It returns
// the zero Account when the daemon did not create one.
func (m *Manager) AddAccount(ctx context.Context, primary, password string, fromArchive bool) Account {
	details := map[string]string{
		detailType:            "RING",
		detailArchivePassword: password,
	}
	if fromArchive {
		details[detailArchivePath] = primary
	} else {
		details[detailAlias] = primary
	}
	body, ok := m.configuration(ctx, "addAccount", details)
	if !ok {
		return Account{}
	}
	var id string
	if !m.decode("addAccount", body, &id) || id == "" {
		return Account{}
	}
	m.log.Info("account added", "account", id)

	a, ok := m.fetchAccount(ctx, id)
	if !ok {
		return Account{ID: id}
	}
	return a
}

// RemoveAccount deletes an account on the daemon.
func (m *Manager) RemoveAccount(ctx context.Context, id string) bool {
	if _, ok := m.configuration(ctx, "removeAccount", id); !ok {
		return false
	}
	m.log.Info("account removed", "account", id)
	return true
}

// applyRegistration updates the enabled flag of a present account.
func (m *Manager) applyRegistration(id, state string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.accounts {
		if m.accounts[i].ID == id {
			m.accounts[i].Enabled = state == registeredState
			return true
		}
	}
	return false
}
