package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ruring/internal/ring"
)

// messages
type tickMsg time.Time

type dataMsg viewData

// actionMsg reports the outcome of an RPC and triggers a reload.
type actionMsg string

type noticeMsg ring.Notice

const noEffect = "no effect"

func outcome(ok bool, done string) tea.Msg {
	if !ok {
		return actionMsg(noEffect)
	}
	return actionMsg(done)
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// load reads a fresh snapshot, plus the live contact lists when an
// account is open.
func (a *App) load() tea.Cmd {
	accountID := ""
	if a.mode == modeContacts {
		accountID = a.accountID
	}
	return func() tea.Msg {
		snap := a.client.Snapshot()
		d := viewData{
			accounts:  snap.Accounts,
			entries:   snap.Entries,
			accountID: accountID,
		}
		if accountID != "" {
			d.requests = a.client.PendingRequests(a.ctx, accountID)
			d.contacts = a.client.Contacts(a.ctx, accountID)
		}
		return dataMsg(d)
	}
}

func (a *App) setEnabledCmd(id string, enable bool) tea.Cmd {
	return func() tea.Msg {
		verb := "disabling "
		if enable {
			verb = "enabling "
		}
		return outcome(a.client.SetAccountEnabled(a.ctx, id, enable), verb+id)
	}
}

func (a *App) addAccountCmd(primary, password string, fromArchive bool) tea.Cmd {
	return func() tea.Msg {
		acct := a.client.AddAccount(a.ctx, primary, password, fromArchive)
		return outcome(acct.ID != "", "account "+acct.ID+" added")
	}
}

func (a *App) removeAccountCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return outcome(a.client.RemoveAccount(a.ctx, id), "account "+id+" removed")
	}
}

func (a *App) addContactCmd(accountID, contact string) tea.Cmd {
	return func() tea.Msg {
		return outcome(a.client.AddContact(a.ctx, accountID, contact), contact+" added")
	}
}

func (a *App) removeContactCmd(accountID, contact string, banned bool) tea.Cmd {
	return func() tea.Msg {
		done := contact + " removed"
		if banned {
			done = contact + " banned"
		}
		return outcome(a.client.RemoveContact(a.ctx, accountID, contact, banned), done)
	}
}

func (a *App) respondCmd(accountID, from string, accept bool) tea.Cmd {
	return func() tea.Msg {
		done := "request from " + from + " discarded"
		if accept {
			done = "request from " + from + " accepted"
		}
		return outcome(a.client.RespondToRequest(a.ctx, accountID, from, accept), done)
	}
}

func (a *App) sendRequestCmd(accountID, to string) tea.Cmd {
	return func() tea.Msg {
		return outcome(a.client.SendTrustRequest(a.ctx, accountID, to), "request sent to "+to)
	}
}

func (a *App) sendTextCmd(accountID, to, body string) tea.Cmd {
	return func() tea.Msg {
		id := a.client.SendText(a.ctx, accountID, to, body)
		return outcome(id != 0, fmt.Sprintf("message %d sent", id))
	}
}

func (a *App) placeCallCmd(accountID, to string) tea.Cmd {
	return func() tea.Msg {
		id := a.client.PlaceCall(a.ctx, accountID, to)
		return outcome(id != "", "calling "+to)
	}
}
