package tui

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/ruring/internal/config"
	"github.com/jask/ruring/internal/ring"
)

const Version = "1.0.0"

// Client is the part of the state manager the UI drives.
type Client interface {
	Snapshot() ring.Snapshot
	Contacts(ctx context.Context, accountID string) []string
	PendingRequests(ctx context.Context, accountID string) []string
	SetAccountEnabled(ctx context.Context, id string, enable bool) bool
	AddAccount(ctx context.Context, primary, password string, fromArchive bool) ring.Account
	RemoveAccount(ctx context.Context, id string) bool
	AddContact(ctx context.Context, accountID, contact string) bool
	RemoveContact(ctx context.Context, accountID, contact string, banned bool) bool
	RespondToRequest(ctx context.Context, accountID, from string, accept bool) bool
	SendTrustRequest(ctx context.Context, from, to string) bool
	SendText(ctx context.Context, from, to, body string) uint64
	PlaceCall(ctx context.Context, accountID, destination string) string
}

var _ Client = (*ring.Manager)(nil)

type mode int

const (
	modeAccounts mode = iota
	modeContacts
	modeAddAccount
	modeImportAccount
	modeAddContact
	modeSendInteraction
)

func (m mode) String() string {
	switch m {
	case modeAccounts:
		return "accounts"
	case modeContacts:
		return "contacts"
	case modeAddAccount:
		return "add_account"
	case modeImportAccount:
		return "import_account"
	case modeAddContact:
		return "add_contact"
	case modeSendInteraction:
		return "send_interaction"
	default:
		return "unknown"
	}
}

// parent is the full-screen mode a form returns to.
func (m mode) parent() mode {
	switch m {
	case modeAddContact, modeSendInteraction, modeContacts:
		return modeContacts
	default:
		return modeAccounts
	}
}

// viewData is what one render needs. Requests and contacts belong to
// accountID and are empty outside the contacts mode.
type viewData struct {
	accounts  []ring.Account
	entries   []ring.Entry
	accountID string
	requests  []string
	contacts  []string
}

// App is the interaction controller.
type App struct {
	ctx     context.Context
	client  Client
	keys    *KeyRegistry
	help    help.Model
	refresh time.Duration

	mode      mode
	accountID string
	contactID string
	data      viewData
	form      *form
	status    string
	announced string

	width  int
	height int
}

func New(ctx context.Context, client Client, cfg config.Config) *App {
	refresh := cfg.UI.RefreshInterval
	if refresh <= 0 {
		refresh = time.Second
	}
	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = menuStyle
	h.Styles.ShortDesc = menuStyle
	h.Styles.ShortSeparator = menuStyle
	return &App{
		ctx:     ctx,
		client:  client,
		keys:    NewKeyRegistry(ApplyActionKeybindings(DefaultKeyBindings(), cfg.Keys)),
		help:    h,
		refresh: refresh,
		mode:    modeAccounts,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.load(), a.tick())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.form != nil {
			return a.handleFormKey(m)
		}
		if a.mode == modeContacts {
			return a.handleContactsKey(m)
		}
		return a.handleAccountsKey(m)
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
	case tickMsg:
		// the tick only redraws; forms keep their own state and skip the reload
		if a.form != nil {
			return a, a.tick()
		}
		return a, tea.Batch(a.load(), a.tick())
	case dataMsg:
		a.applyData(viewData(m))
	case actionMsg:
		a.status = string(m)
		return a, a.load()
	case noticeMsg:
		a.status = ring.Notice(m).String()
		if m.Kind == ring.NoticeMessage {
			a.announced = m.InteractionID
		}
	}
	return a, nil
}

func (a *App) applyData(d viewData) {
	want := ""
	if a.mode.parent() == modeContacts {
		want = a.accountID
	}
	if d.accountID != want {
		// loaded for an account that is no longer open
		d.requests, d.contacts, d.accountID = a.data.requests, a.data.contacts, a.data.accountID
	}
	a.data = d

	switch a.mode {
	case modeAccounts:
		if a.accountID == "" || !a.hasAccount(a.accountID) {
			a.accountID = ""
			if len(d.accounts) > 0 {
				a.accountID = d.accounts[0].ID
			}
		}
	case modeContacts:
		if a.contactID == "" && d.accountID == a.accountID {
			if entries := a.contactEntries(); len(entries) > 0 {
				a.contactID = entries[0]
			}
		}
	}
}

func (a *App) handleAccountsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.keys.Action(m, scopeAccounts) {
	case actionQuit:
		return a, tea.Quit
	case actionPrev:
		a.accountID = step(a.accountIDs(), a.accountID, false)
	case actionNext:
		a.accountID = step(a.accountIDs(), a.accountID, true)
	case actionToggleEnable:
		if acct, ok := a.focusedAccount(); ok {
			return a, a.setEnabledCmd(acct.ID, !acct.Enabled)
		}
	case actionOpen:
		if a.accountID == "" {
			return a, nil
		}
		a.mode = modeContacts
		a.contactID = ""
		a.data.requests, a.data.contacts, a.data.accountID = nil, nil, ""
		return a, a.load()
	case actionAddAccount:
		a.openForm(modeAddAccount)
	case actionImportAccount:
		a.openForm(modeImportAccount)
	case actionRemoveAccount:
		if a.accountID == "" {
			return a, nil
		}
		id := a.accountID
		a.accountID = ""
		return a, a.removeAccountCmd(id)
	}
	return a, nil
}

func (a *App) handleContactsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	account, contact := a.accountID, a.contactID
	switch a.keys.Action(m, a.contactScope()) {
	case actionQuit:
		return a, tea.Quit
	case actionBack:
		a.mode = modeAccounts
		a.contactID = ""
		a.data.requests, a.data.contacts, a.data.accountID = nil, nil, ""
		return a, a.load()
	case actionPrev:
		a.contactID = step(a.contactEntries(), a.contactID, false)
	case actionNext:
		a.contactID = step(a.contactEntries(), a.contactID, true)
	case actionAccept:
		return a, a.respondCmd(account, contact, true)
	case actionDiscard:
		a.contactID = ""
		return a, a.respondCmd(account, contact, false)
	case actionAddContact:
		a.openForm(modeAddContact)
	case actionRemoveContact:
		if contact == "" {
			return a, nil
		}
		a.contactID = ""
		return a, a.removeContactCmd(account, contact, false)
	case actionBan:
		if contact == "" {
			return a, nil
		}
		a.contactID = ""
		return a, a.removeContactCmd(account, contact, true)
	case actionCall:
		if contact != "" {
			return a, a.placeCallCmd(account, contact)
		}
	case actionSendMessage:
		if contact != "" {
			a.openForm(modeSendInteraction)
		}
	case actionSendRequest:
		if contact != "" {
			return a, a.sendRequestCmd(account, contact)
		}
	}
	return a, nil
}

func (a *App) handleFormKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.keys.Action(m, scopeForm) {
	case actionQuit:
		return a, tea.Quit
	case actionNextField:
		a.form.cycle(true)
	case actionPrevField:
		a.form.cycle(false)
	case actionCancel:
		a.closeForm()
		return a, a.load()
	case actionConfirm:
		switch a.form.focus {
		case focusOK:
			cmd := a.submit()
			a.closeForm()
			if cmd == nil {
				return a, a.load()
			}
			return a, cmd
		case focusCancel:
			a.closeForm()
			return a, a.load()
		default:
			a.form.cycle(true)
		}
	default:
		return a, a.form.edit(m)
	}
	return a, nil
}

// submit runs the form's operation. Empty input submits nothing.
func (a *App) submit() tea.Cmd {
	primary, secret := a.form.values()
	if primary == "" {
		return nil
	}
	switch a.mode {
	case modeAddAccount:
		return a.addAccountCmd(primary, secret, false)
	case modeImportAccount:
		return a.addAccountCmd(primary, secret, true)
	case modeAddContact:
		return a.addContactCmd(a.accountID, primary)
	case modeSendInteraction:
		return a.sendTextCmd(a.accountID, a.contactID, primary)
	}
	return nil
}

func (a *App) openForm(m mode) {
	a.mode = m
	a.form = newForm(m)
}

func (a *App) closeForm() {
	a.mode = a.mode.parent()
	a.form = nil
}

func (a *App) contactScope() string {
	if a.isRequest(a.contactID) {
		return scopeRequests
	}
	return scopeContacts
}

func (a *App) scope() string {
	switch a.mode {
	case modeAccounts:
		return scopeAccounts
	case modeContacts:
		return a.contactScope()
	default:
		return scopeForm
	}
}

func (a *App) isRequest(id string) bool {
	return id != "" && a.data.accountID == a.accountID && slices.Contains(a.data.requests, id)
}

// contactEntries is the contacts column in display order: requests first.
func (a *App) contactEntries() []string {
	if a.data.accountID != a.accountID {
		return nil
	}
	return append(slices.Clone(a.data.requests), a.data.contacts...)
}

func (a *App) accountIDs() []string {
	ids := make([]string, 0, len(a.data.accounts))
	for _, acct := range a.data.accounts {
		ids = append(ids, acct.ID)
	}
	return ids
}

func (a *App) hasAccount(id string) bool {
	_, ok := a.findAccount(id)
	return ok
}

func (a *App) focusedAccount() (ring.Account, bool) {
	return a.findAccount(a.accountID)
}

func (a *App) findAccount(id string) (ring.Account, bool) {
	for _, acct := range a.data.accounts {
		if acct.ID == id {
			return acct, true
		}
	}
	return ring.Account{}, false
}

// Notifier forwards manager notices to a running program, one at a time
// and in the order they were raised. Notify never blocks: when the queue is
// full the notice is dropped.
type Notifier struct {
	mu     sync.Mutex
	queue  chan ring.Notice
	closed bool
}

// NewNotifier queues up to buffer notices until they reach the program.
func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 64
	}
	return &Notifier{queue: make(chan ring.Notice, buffer)}
}

// Attach starts the forwarding goroutine. Call it once; notices queued
// before Attach are delivered first.
func (n *Notifier) Attach(p interface{ Send(tea.Msg) }) {
	go func() {
		for notice := range n.queue {
			p.Send(noticeMsg(notice))
		}
	}()
}

func (n *Notifier) Notify(notice ring.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- notice:
	default:
	}
}

// Close stops forwarding once the queue drains.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
}
