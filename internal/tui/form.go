package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type focusTarget int

const (
	focusPrimary focusTarget = iota
	focusSecret
	focusOK
	focusCancel
)

// form is the popup shown by the add_account, import_account, add_contact
// and send_interaction modes.
type form struct {
	title   string
	labels  []string
	primary textinput.Model
	secret  *textinput.Model
	focus   focusTarget
	// raw keeps the primary value as typed; message bodies are not trimmed.
	raw bool
}

func newForm(m mode) *form {
	f := &form{primary: newInput()}
	switch m {
	case modeAddAccount, modeImportAccount:
		f.title = "Add new RING account"
		first := "Username:"
		if m == modeImportAccount {
			f.title = "Import RING account"
			first = "Path:"
		}
		f.labels = []string{first, "Password:"}
		secret := newInput()
		secret.EchoMode = textinput.EchoPassword
		secret.EchoCharacter = '*'
		f.secret = &secret
	case modeAddContact:
		f.title = "Add new contact"
		f.labels = []string{"Id:"}
	case modeSendInteraction:
		f.title = "Send message"
		f.labels = []string{"Message:"}
		f.raw = true
	}
	f.setFocus(focusPrimary)
	return f
}

func newInput() textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

func (f *form) order() []focusTarget {
	if f.secret == nil {
		return []focusTarget{focusPrimary, focusOK, focusCancel}
	}
	return []focusTarget{focusPrimary, focusSecret, focusOK, focusCancel}
}

// cycle moves focus one target forward or backward, wrapping around.
func (f *form) cycle(forward bool) {
	order := f.order()
	i := 0
	for j, t := range order {
		if t == f.focus {
			i = j
		}
	}
	if forward {
		i = (i + 1) % len(order)
	} else {
		i = (i + len(order) - 1) % len(order)
	}
	f.setFocus(order[i])
}

func (f *form) setFocus(t focusTarget) {
	f.focus = t
	f.primary.Blur()
	if f.secret != nil {
		f.secret.Blur()
	}
	switch t {
	case focusPrimary:
		f.primary.Focus()
	case focusSecret:
		if f.secret != nil {
			f.secret.Focus()
		}
	}
}

func (f *form) onField() bool {
	return f.focus == focusPrimary || f.focus == focusSecret
}

// edit forwards a key to the focused field.
func (f *form) edit(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case focusPrimary:
		f.primary, cmd = f.primary.Update(msg)
	case focusSecret:
		if f.secret != nil {
			*f.secret, cmd = f.secret.Update(msg)
		}
	}
	return cmd
}

func (f *form) values() (string, string) {
	primary := f.primary.Value()
	if !f.raw {
		primary = strings.TrimSpace(primary)
	}
	if f.secret == nil {
		return primary, ""
	}
	return primary, f.secret.Value()
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title))
	b.WriteString("\n\n")
	width := 0
	for _, l := range f.labels {
		width = max(width, len(l))
	}
	inputs := []*textinput.Model{&f.primary}
	if f.secret != nil {
		inputs = append(inputs, f.secret)
	}
	for i, in := range inputs {
		b.WriteString(padLabel(f.labels[i], width))
		b.WriteString("  ")
		b.WriteString(fieldStyle.Render(in.View()))
		b.WriteString("\n\n")
	}
	b.WriteString(button("< OK >", f.focus == focusOK))
	b.WriteString("    ")
	b.WriteString(button("< Cancel >", f.focus == focusCancel))
	return b.String()
}

func padLabel(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func button(label string, focused bool) string {
	if focused {
		return selectedStyle.Render(label)
	}
	return label
}
