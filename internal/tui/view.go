package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/ruring/internal/ring"
)

// styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	menuStyle     = lipgloss.NewStyle().Reverse(true)
	fieldStyle    = lipgloss.NewStyle().Width(32).Underline(true)
	footerStyle   = lipgloss.NewStyle().Faint(true)
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

func (a *App) View() string {
	width, height := a.size()
	base := a.renderBase(width, height)
	if a.form == nil {
		return base
	}
	return renderPopup(base, a.form.view(), width, height)
}

func (a *App) size() (int, int) {
	width, height := a.width, a.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return width, height
}

func (a *App) renderBase(width, height int) string {
	menu := a.renderMenu(width)

	// menu, spacer, columns, footer
	rows := max(1, height-3)
	colWidth := max(1, width/3)
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		column(a.renderAccounts(), colWidth, rows),
		column(a.renderContacts(), colWidth, rows),
		column(a.renderConversation(), width-2*colWidth, rows),
	)

	footer := "ruring v" + Version
	if a.status != "" {
		footer += "  " + a.status
	}
	out := strings.Join([]string{
		menu,
		"",
		columns,
		footerStyle.Render(ansi.Truncate(footer, width, "…")),
	}, "\n")
	return strings.Join(lines(out, height), "\n")
}

func (a *App) renderMenu(width int) string {
	bar := a.help.ShortHelpView(a.keys.Help(a.scope()))
	return menuStyle.Render(fitWidth(bar, width))
}

// column clips every line to width and pads the block to rows lines.
func column(ls []string, width, rows int) string {
	ls = lines(strings.Join(ls, "\n"), rows)
	for i, l := range ls {
		ls[i] = fitWidth(" "+l, width)
	}
	return strings.Join(ls, "\n")
}

func (a *App) renderAccounts() []string {
	out := []string{titleStyle.Render("RORI Accounts:"), ""}
	for _, acct := range a.data.accounts {
		box := "[ ] "
		if acct.Enabled {
			box = "[x] "
		}
		out = append(out, highlight(box+acct.Label(), a.mode == modeAccounts && acct.ID == a.accountID))
	}
	return out
}

func (a *App) renderContacts() []string {
	if a.mode.parent() != modeContacts || a.data.accountID != a.accountID {
		return nil
	}
	var out []string
	if len(a.data.requests) > 0 {
		out = append(out, titleStyle.Render("Requests:"), "")
		for _, r := range a.data.requests {
			out = append(out, highlight(r, r == a.contactID))
		}
		out = append(out, "")
	}
	out = append(out, titleStyle.Render("Contacts:"), "")
	for _, c := range a.data.contacts {
		out = append(out, highlight(c, c == a.contactID))
	}
	return out
}

// renderConversation lists the focused contact's messages, newest first.
// The message named by the last notice is marked with "* ".
func (a *App) renderConversation() []string {
	if a.mode.parent() != modeContacts || a.contactID == "" {
		return nil
	}
	snap := ring.Snapshot{Entries: a.data.entries}
	var out []string
	for _, in := range snap.Conversation(a.accountID, a.contactID) {
		line := in.Time.Format(time.RFC3339) + ": " + in.Body
		if in.ID != "" && in.ID == a.announced {
			line = "* " + line
		}
		out = append(out, line)
	}
	return out
}

func highlight(s string, on bool) string {
	if on {
		return selectedStyle.Render(s)
	}
	return s
}
