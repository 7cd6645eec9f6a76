package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Scopes a binding can be active in. The contacts column switches between
// scopeContacts and scopeRequests depending on what is focused.
const (
	scopeAccounts = "accounts"
	scopeContacts = "contacts"
	scopeRequests = "requests"
	scopeForm     = "form"
)

// Actions.
const (
	actionQuit          = "quit"
	actionPrev          = "prev"
	actionNext          = "next"
	actionToggleEnable  = "toggle_enable"
	actionOpen          = "open"
	actionAddAccount    = "add_account"
	actionImportAccount = "import_account"
	actionRemoveAccount = "remove_account"
	actionBack          = "back"
	actionAccept        = "accept"
	actionDiscard       = "discard"
	actionAddContact    = "add_contact"
	actionRemoveContact = "remove_contact"
	actionBan           = "ban"
	actionCall          = "call"
	actionSendMessage   = "send_message"
	actionSendRequest   = "send_request"
	actionNextField     = "next_field"
	actionPrevField     = "prev_field"
	actionConfirm       = "confirm"
	actionCancel        = "cancel"
)

type KeyBinding struct {
	Keys        []string
	Action      string
	Description string
	Scopes      []string
}

type KeyRegistry struct {
	bindings []KeyBinding
}

var contactScopes = []string{scopeContacts, scopeRequests}

// DefaultKeyBindings lists the bindings in menu order.
func DefaultKeyBindings() []KeyBinding {
	return []KeyBinding{
		{Keys: []string{"ctrl+c"}, Action: actionQuit, Description: "quit", Scopes: []string{"*"}},
		{Keys: []string{"esc", "q"}, Action: actionQuit, Description: "quit", Scopes: []string{scopeAccounts}},
		{Keys: []string{"esc"}, Action: actionBack, Description: "return", Scopes: contactScopes},
		{Keys: []string{"a"}, Action: actionAddAccount, Description: "add", Scopes: []string{scopeAccounts}},
		{Keys: []string{"r"}, Action: actionRemoveAccount, Description: "remove", Scopes: []string{scopeAccounts}},
		{Keys: []string{"space"}, Action: actionToggleEnable, Description: "enable", Scopes: []string{scopeAccounts}},
		{Keys: []string{"i"}, Action: actionImportAccount, Description: "import", Scopes: []string{scopeAccounts}},
		{Keys: []string{"enter"}, Action: actionOpen, Description: "select", Scopes: []string{scopeAccounts}},
		{Keys: []string{"a"}, Action: actionAccept, Description: "accept", Scopes: []string{scopeRequests}},
		{Keys: []string{"r"}, Action: actionDiscard, Description: "discard", Scopes: []string{scopeRequests}},
		{Keys: []string{"a"}, Action: actionAddContact, Description: "add", Scopes: []string{scopeContacts}},
		{Keys: []string{"r"}, Action: actionRemoveContact, Description: "remove", Scopes: []string{scopeContacts}},
		{Keys: []string{"b"}, Action: actionBan, Description: "ban", Scopes: contactScopes},
		{Keys: []string{"c"}, Action: actionCall, Description: "call", Scopes: contactScopes},
		{Keys: []string{"enter"}, Action: actionSendMessage, Description: "send message", Scopes: contactScopes},
		{Keys: []string{"t"}, Action: actionSendRequest, Description: "send request", Scopes: []string{scopeContacts}},
		{Keys: []string{"up", "k"}, Action: actionPrev, Description: "prev", Scopes: []string{scopeAccounts, scopeContacts, scopeRequests}},
		{Keys: []string{"down", "j"}, Action: actionNext, Description: "next", Scopes: []string{scopeAccounts, scopeContacts, scopeRequests}},
		{Keys: []string{"tab"}, Action: actionNextField, Description: "next", Scopes: []string{scopeForm}},
		{Keys: []string{"shift+tab"}, Action: actionPrevField, Description: "prev", Scopes: []string{scopeForm}},
		{Keys: []string{"enter"}, Action: actionConfirm, Description: "confirm", Scopes: []string{scopeForm}},
		{Keys: []string{"esc"}, Action: actionCancel, Description: "cancel", Scopes: []string{scopeForm}},
	}
}

// ApplyActionKeybindings replaces the keys of every binding whose action
// appears in actionKeys.
func ApplyActionKeybindings(bindings []KeyBinding, actionKeys map[string][]string) []KeyBinding {
	out := make([]KeyBinding, 0, len(bindings))
	for _, b := range bindings {
		next := KeyBinding{
			Keys:        slices.Clone(b.Keys),
			Action:      b.Action,
			Description: b.Description,
			Scopes:      slices.Clone(b.Scopes),
		}
		if keys, ok := actionKeys[b.Action]; ok && len(keys) > 0 {
			next.Keys = slices.Clone(keys)
		}
		out = append(out, next)
	}
	return out
}

func NewKeyRegistry(bindings []KeyBinding) *KeyRegistry {
	return &KeyRegistry{bindings: slices.Clone(bindings)}
}

// BindingsForScope lists the bindings active in scope, global ones included.
func (r *KeyRegistry) BindingsForScope(scope string) []KeyBinding {
	out := make([]KeyBinding, 0, len(r.bindings))
	for _, b := range r.bindings {
		if scopeMatch(scope, b.Scopes) {
			out = append(out, b)
		}
	}
	return out
}

// Action returns the first action bound to msg in scope, or "".
func (r *KeyRegistry) Action(msg tea.KeyMsg, scope string) string {
	pressed := normalizeKey(msg.String())
	for _, b := range r.bindings {
		if !scopeMatch(scope, b.Scopes) {
			continue
		}
		for _, k := range b.Keys {
			if normalizeKey(k) == pressed {
				return b.Action
			}
		}
	}
	return ""
}

func (r *KeyRegistry) IsAction(msg tea.KeyMsg, action, scope string) bool {
	return r.Action(msg, scope) == action
}

// Help converts the scope's bindings into bubbles bindings for the menu bar.
// Global bindings are left out.
func (r *KeyRegistry) Help(scope string) []key.Binding {
	var out []key.Binding
	seen := map[string]bool{}
	for _, b := range r.BindingsForScope(scope) {
		if len(b.Keys) == 0 || slices.Contains(b.Scopes, "*") {
			continue
		}
		if seen[b.Action] {
			continue
		}
		seen[b.Action] = true
		out = append(out, key.NewBinding(
			key.WithKeys(b.Keys...),
			key.WithHelp(b.Keys[0], b.Description),
		))
	}
	return out
}

// normalizeKey folds a key name; bubbletea reports the space bar as " ".
func normalizeKey(k string) string {
	if k == " " {
		return "space"
	}
	return strings.ToLower(strings.TrimSpace(k))
}

func scopeMatch(scope string, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}
