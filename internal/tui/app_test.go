package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/ruring/internal/bus"
	"github.com/jask/ruring/internal/bus/bustest"
	"github.com/jask/ruring/internal/config"
	"github.com/jask/ruring/internal/ring"
)

// newDaemon serves a1 (Alice, enabled) and a2 (Bob, disabled). a1 has a
// pending request from b2 and the contacts c1 and c3.
func newDaemon(t *testing.T) *bustest.Fake {
	t.Helper()
	f := bustest.New()
	f.Reply("getAccountList", []string{"a1", "a2"})
	f.Handle("getAccountDetails", func(args []any) ([]any, error) {
		switch args[0] {
		case "a1":
			return []any{map[string]string{"Account.alias": "Alice", "Account.username": "ring:123", "Account.enable": "true"}}, nil
		case "a2":
			return []any{map[string]string{"Account.alias": "Bob", "Account.username": "ring:456", "Account.enable": "false"}}, nil
		}
		return nil, fmt.Errorf("no such account %v", args[0])
	})
	f.Reply("getTrustRequests", []map[string]string{{"from": "b2"}})
	f.Reply("getContacts", []map[string]string{{"id": "c1"}, {"id": "c3"}})
	f.Reply("acceptTrustRequest", true)
	f.Reply("discardTrustRequest", true)
	f.Reply("removeContact")
	f.Reply("addContact")
	f.Reply("sendRegister")
	f.Reply("removeAccount")
	return f
}

func newApp(t *testing.T, f *bustest.Fake, opts ...ring.Option) (*App, *ring.Manager) {
	t.Helper()
	m, err := ring.New(context.Background(), f, opts...)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.UI.RefreshInterval = time.Millisecond
	a := New(context.Background(), m, cfg)
	drain(t, a, a.Init())
	return a, m
}

// drain runs cmd and feeds every resulting message back into the app until
// nothing is left. Ticks are dropped so polling does not loop forever.
func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch m := c().(type) {
		case nil, tickMsg:
		case tea.BatchMsg:
			queue = append(queue, m...)
		default:
			_, next := a.Update(m)
			queue = append(queue, next)
		}
	}
}

func press(t *testing.T, a *App, keys ...tea.KeyMsg) {
	t.Helper()
	for _, k := range keys {
		_, cmd := a.Update(k)
		drain(t, a, cmd)
	}
}

func typeText(t *testing.T, a *App, s string) {
	t.Helper()
	for _, r := range s {
		press(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

var (
	enter    = tea.KeyMsg{Type: tea.KeyEnter}
	esc      = tea.KeyMsg{Type: tea.KeyEsc}
	tab      = tea.KeyMsg{Type: tea.KeyTab}
	shiftTab = tea.KeyMsg{Type: tea.KeyShiftTab}
	down     = tea.KeyMsg{Type: tea.KeyDown}
	up       = tea.KeyMsg{Type: tea.KeyUp}
	space    = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestInitFocusesFirstAccount(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))
	require.Equal(t, modeAccounts, a.mode)
	require.Equal(t, "a1", a.accountID)

	view := a.View()
	require.Contains(t, view, "RORI Accounts:")
	require.Contains(t, view, "[x] Alice (ring:123)")
	require.Contains(t, view, "[ ] Bob (ring:456)")
	require.Contains(t, view, "ruring v"+Version)
	require.NotContains(t, view, "Contacts:")
}

func TestAccountNavigation(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))
	press(t, a, down)
	require.Equal(t, "a2", a.accountID)
	press(t, a, keyMsg("j"))
	require.Equal(t, "a2", a.accountID, "no wrapping past the end")
	press(t, a, up)
	require.Equal(t, "a1", a.accountID)
	press(t, a, keyMsg("k"))
	require.Equal(t, "a1", a.accountID)
}

func TestSpaceTogglesAccount(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	a, m := newApp(t, f)
	press(t, a, space)

	calls := f.CallsTo("sendRegister")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"a1", false}, calls[0].Args)
	require.Equal(t, "disabling a1", a.status)

	acct, ok := m.Account("a1")
	require.True(t, ok)
	require.True(t, acct.Enabled, "only a registration notification changes the flag")
}

func TestOpenAccountFocusesRequestsFirst(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))
	press(t, a, enter)

	require.Equal(t, modeContacts, a.mode)
	require.Equal(t, "a1", a.accountID)
	require.Equal(t, "b2", a.contactID)
	require.Equal(t, scopeRequests, a.scope())

	view := a.View()
	require.Contains(t, view, "Requests:")
	require.Contains(t, view, "b2")
	require.Contains(t, view, "Contacts:")
	require.Contains(t, view, "c1")
	require.Contains(t, view, "c3")
	require.Contains(t, view, "accept")
}

func TestContactNavigationRoundTrip(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))
	press(t, a, enter)

	press(t, a, down)
	require.Equal(t, "c1", a.contactID)
	press(t, a, down)
	require.Equal(t, "c3", a.contactID)
	press(t, a, down)
	require.Equal(t, "c3", a.contactID)
	press(t, a, up, up)
	require.Equal(t, "b2", a.contactID)
}

func TestRequestFocusAcceptsAndDiscards(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	a, _ := newApp(t, f)
	press(t, a, enter)
	require.Equal(t, "b2", a.contactID)

	press(t, a, keyMsg("a"))
	require.Nil(t, a.form, "a on a request must not open the add form")
	calls := f.CallsTo("acceptTrustRequest")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"a1", "b2", true}, calls[0].Args)
	require.Equal(t, "request from b2 accepted", a.status)

	press(t, a, keyMsg("r"))
	calls = f.CallsTo("discardTrustRequest")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"a1", "b2", false}, calls[0].Args)
	require.Empty(t, f.CallsTo("removeContact"))
}

func TestContactFocusRemovesAndBans(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	a, _ := newApp(t, f)
	press(t, a, enter, down)
	require.Equal(t, scopeContacts, a.scope())

	press(t, a, keyMsg("r"))
	press(t, a, down, keyMsg("b"))

	calls := f.CallsTo("removeContact")
	require.Len(t, calls, 2)
	require.Equal(t, []any{"a1", "c1", false}, calls[0].Args)
	require.Equal(t, []any{"a1", "c1", true}, calls[1].Args)
	require.Empty(t, f.CallsTo("discardTrustRequest"))
	require.Equal(t, "c1 banned", a.status)
}

func TestEscReturnsThenQuits(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))
	press(t, a, enter)
	press(t, a, esc)
	require.Equal(t, modeAccounts, a.mode)
	require.Empty(t, a.contactID)
	require.NotContains(t, a.View(), "Requests:")

	_, cmd := a.Update(esc)
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAddAccountForm(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	f.Reply("addAccount", "a3")
	a, _ := newApp(t, f)

	press(t, a, keyMsg("a"))
	require.Equal(t, modeAddAccount, a.mode)
	require.NotNil(t, a.form)
	view := a.View()
	require.Contains(t, view, "Add new RING account")
	require.Contains(t, view, "Username:")
	require.Contains(t, view, "< OK >")
	require.Contains(t, view, "< Cancel >")

	typeText(t, a, "alice")
	press(t, a, tab)
	typeText(t, a, "pw")
	require.Contains(t, a.View(), "**")
	press(t, a, tab)
	require.Equal(t, focusOK, a.form.focus)
	press(t, a, enter)

	require.Equal(t, modeAccounts, a.mode)
	require.Nil(t, a.form)
	calls := f.CallsTo("addAccount")
	require.Len(t, calls, 1)
	details, ok := calls[0].Args[0].(map[string]string)
	require.True(t, ok)
	require.Equal(t, "alice", details["Account.alias"])
	require.Equal(t, "pw", details["Account.archivePassword"])
	require.Equal(t, "RING", details["Account.type"])
	require.Equal(t, "account a3 added", a.status)
}

func TestImportFormEnterAdvancesFocus(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	f.Reply("addAccount", "a4")
	a, _ := newApp(t, f)

	press(t, a, keyMsg("i"))
	require.Equal(t, modeImportAccount, a.mode)
	require.Contains(t, a.View(), "Path:")

	typeText(t, a, "/tmp/backup.gz")
	press(t, a, enter)
	require.Equal(t, focusSecret, a.form.focus)
	typeText(t, a, "secret")
	press(t, a, enter)
	require.Equal(t, focusOK, a.form.focus)
	press(t, a, enter)

	calls := f.CallsTo("addAccount")
	require.Len(t, calls, 1)
	details := calls[0].Args[0].(map[string]string)
	require.Equal(t, "/tmp/backup.gz", details["Account.archivePath"])
	require.Equal(t, "secret", details["Account.archivePassword"])
	require.NotContains(t, details, "Account.alias")
}

func TestFormCancel(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	a, _ := newApp(t, f)

	press(t, a, keyMsg("a"))
	typeText(t, a, "alice")
	press(t, a, shiftTab)
	require.Equal(t, focusCancel, a.form.focus)
	press(t, a, enter)
	require.Equal(t, modeAccounts, a.mode)
	require.Nil(t, a.form)

	press(t, a, keyMsg("a"))
	typeText(t, a, "bob")
	press(t, a, esc)
	require.Equal(t, modeAccounts, a.mode)
	require.Empty(t, f.CallsTo("addAccount"))
}

func TestSingleFieldFormSkipsSecret(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))
	press(t, a, enter, down, keyMsg("a"))
	require.Equal(t, modeAddContact, a.mode)
	require.Contains(t, a.View(), "Id:")

	var seen []focusTarget
	for range 4 {
		press(t, a, tab)
		seen = append(seen, a.form.focus)
	}
	require.Equal(t, []focusTarget{focusOK, focusCancel, focusPrimary, focusOK}, seen)
}

func TestAddContactReturnsToContacts(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	a, _ := newApp(t, f)
	press(t, a, enter, down, keyMsg("a"))
	typeText(t, a, "d4")
	press(t, a, tab, enter)

	require.Equal(t, modeContacts, a.mode)
	calls := f.CallsTo("addContact")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"a1", "d4"}, calls[0].Args)
}

func TestEmptyFormSubmitsNothing(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	a, _ := newApp(t, f)
	press(t, a, enter, down, keyMsg("a"), tab, enter)

	require.Equal(t, modeContacts, a.mode)
	require.Empty(t, f.CallsTo("addContact"))
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	f.Reply("sendTextMessage", uint64(7))
	a, _ := newApp(t, f)

	press(t, a, enter, down, enter)
	require.Equal(t, modeSendInteraction, a.mode)
	require.Contains(t, a.View(), "Message:")
	typeText(t, a, "hello")
	press(t, a, tab, enter)

	require.Equal(t, modeContacts, a.mode)
	calls := f.CallsTo("sendTextMessage")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"a1", "c1", map[string]string{"text/plain": "hello"}}, calls[0].Args)
	require.Equal(t, "message 7 sent", a.status)
}

func TestSendMessageKeepsWhitespace(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	f.Reply("sendTextMessage", uint64(8))
	a, _ := newApp(t, f)

	press(t, a, enter, down, enter)
	typeText(t, a, "  hi  ")
	press(t, a, tab, enter)
	press(t, a, enter)
	typeText(t, a, "   ")
	press(t, a, tab, enter)

	calls := f.CallsTo("sendTextMessage")
	require.Len(t, calls, 2)
	require.Equal(t, map[string]string{"text/plain": "  hi  "}, calls[0].Args[2])
	require.Equal(t, map[string]string{"text/plain": "   "}, calls[1].Args[2])
}

func TestContactIDIsTrimmed(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	a, _ := newApp(t, f)
	press(t, a, enter, down, keyMsg("a"))
	typeText(t, a, " d5 ")
	press(t, a, tab, enter)

	calls := f.CallsTo("addContact")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"a1", "d5"}, calls[0].Args)
}

func TestSendMessageFailureHasNoEffect(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	f.Fail("sendTextMessage", errors.New("timeout"))
	a, m := newApp(t, f)

	press(t, a, enter, down, enter)
	typeText(t, a, "hello")
	press(t, a, tab, enter)

	require.Equal(t, noEffect, a.status)
	require.Empty(t, m.Entries())
}

func TestPlaceCallAndTrustRequest(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	f.Reply("placeCall", "call-1")
	f.Reply("sendTrustMessage")
	a, _ := newApp(t, f)

	press(t, a, enter, down, keyMsg("c"))
	calls := f.CallsTo("placeCall")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"a1", "ring:c1"}, calls[0].Args)
	require.Equal(t, "calling c1", a.status)

	press(t, a, keyMsg("t"))
	calls = f.CallsTo("sendTrustMessage")
	require.Len(t, calls, 1)
	require.Equal(t, "a1", calls[0].Args[0])
	require.Equal(t, "c1", calls[0].Args[1])
}

func TestRemoveAccountClearsFocus(t *testing.T) {
	t.Parallel()

	f := newDaemon(t)
	a, _ := newApp(t, f)
	press(t, a, down)
	require.Equal(t, "a2", a.accountID)

	_, cmd := a.Update(keyMsg("r"))
	require.Empty(t, a.accountID)
	drain(t, a, cmd)

	calls := f.CallsTo("removeAccount")
	require.Len(t, calls, 1)
	require.Equal(t, []any{"a2"}, calls[0].Args)
	require.Equal(t, "a1", a.accountID, "focus falls back to the first account")
}

func TestTickSkipsReloadInForms(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))

	_, cmd := a.Update(tickMsg(time.Now()))
	require.IsType(t, tea.BatchMsg{}, cmd())

	press(t, a, keyMsg("a"))
	_, cmd = a.Update(tickMsg(time.Now()))
	require.IsType(t, tickMsg{}, cmd())
}

func TestStaleContactsAreIgnored(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))
	press(t, a, enter)

	a.Update(dataMsg(viewData{accountID: "a2", requests: []string{"zz"}, contacts: []string{"yy"}}))
	require.Equal(t, []string{"b2"}, a.data.requests)
	require.Equal(t, []string{"c1", "c3"}, a.data.contacts)
}

func TestNoticeShownInStatus(t *testing.T) {
	t.Parallel()

	a, _ := newApp(t, newDaemon(t))
	a.Update(noticeMsg(ring.Notice{Kind: ring.NoticeMessage, AccountID: "a1", From: "c1", Body: "hi"}))
	require.Contains(t, a.View(), "New interaction for a1 from c1")
}

func TestNoticeMarksAnnouncedMessage(t *testing.T) {
	t.Parallel()

	notices := make(chan ring.Notice, 4)
	f := newDaemon(t)
	a, m := newApp(t, f, ring.WithNotifier(func(n ring.Notice) { notices <- n }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.HandleSignals(ctx, f) }()
	<-f.Subscribed()

	for _, body := range []string{"old", "new"} {
		f.Emit(bus.Signal{
			Path:      "/cx/ring/Ring/ConfigurationManager",
			Interface: "cx.ring.Ring.ConfigurationManager",
			Member:    "incomingAccountMessage",
			Body:      []any{"a1", "c1", map[string]string{"text/plain": body}},
		})
	}
	for i := 0; i < 2; i++ {
		select {
		case n := <-notices:
			a.Update(noticeMsg(n))
		case <-time.After(time.Second):
			t.Fatal("notice not delivered")
		}
	}

	press(t, a, enter, down)
	require.Equal(t, "c1", a.contactID)
	lines := a.renderConversation()
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "* "), lines[0])
	require.True(t, strings.HasSuffix(lines[0], ": new"), lines[0])
	require.False(t, strings.HasPrefix(lines[1], "* "), lines[1])
}

func TestConversationNewestFirst(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	next := start
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Minute)
		return now
	}

	f := newDaemon(t)
	a, m := newApp(t, f, ring.WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.HandleSignals(ctx, f) }()
	<-f.Subscribed()

	for _, body := range []string{"first", "second"} {
		f.Emit(bus.Signal{
			Path:      "/cx/ring/Ring/ConfigurationManager",
			Interface: "cx.ring.Ring.ConfigurationManager",
			Member:    "incomingAccountMessage",
			Body:      []any{"a1", "c1", map[string]string{"text/plain": body}},
		})
	}
	require.Eventually(t, func() bool { return len(m.Entries()) == 2 }, time.Second, 5*time.Millisecond)

	a.Update(tea.WindowSizeMsg{Width: 180, Height: 30})
	press(t, a, enter, down)
	require.Equal(t, "c1", a.contactID)

	view := a.View()
	second := strings.Index(view, start.Add(time.Minute).Format(time.RFC3339)+": second")
	first := strings.Index(view, start.Format(time.RFC3339)+": first")
	require.GreaterOrEqual(t, second, 0)
	require.GreaterOrEqual(t, first, 0)
	require.Less(t, second, first)
}

func TestKeyOverridesFromConfig(t *testing.T) {
	t.Parallel()

	m, err := ring.New(context.Background(), newDaemon(t))
	require.NoError(t, err)
	cfg := config.Default()
	cfg.UI.RefreshInterval = time.Millisecond
	cfg.Keys = map[string][]string{actionAddContact: {"n"}}
	a := New(context.Background(), m, cfg)
	drain(t, a, a.Init())

	press(t, a, enter, down, keyMsg("a"))
	require.Nil(t, a.form)
	press(t, a, keyMsg("n"))
	require.Equal(t, modeAddContact, a.mode)
}

func TestRenderWithoutDaemon(t *testing.T) {
	t.Parallel()

	f := bustest.New()
	f.Fail("getAccountList", bus.ErrUnavailable)
	a, _ := newApp(t, f)
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	require.Empty(t, a.accountID)
	press(t, a, enter, space, down, keyMsg("r"))
	require.Equal(t, modeAccounts, a.mode)

	view := a.View()
	require.Contains(t, view, "RORI Accounts:")
	require.Len(t, strings.Split(view, "\n"), 30)
}

type sentMsgs struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *sentMsgs) Send(m tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
}

func (s *sentMsgs) bodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.msgs {
		out = append(out, ring.Notice(m.(noticeMsg)).Body)
	}
	return out
}

func TestNotifierForwardsInOrder(t *testing.T) {
	t.Parallel()

	n := NewNotifier(256)
	sent := &sentMsgs{}
	var want []string
	for i := 0; i < 50; i++ {
		n.Notify(ring.Notice{Kind: ring.NoticeMessage, Body: fmt.Sprint(i)})
		want = append(want, fmt.Sprint(i))
	}
	n.Attach(sent)
	for i := 50; i < 200; i++ {
		n.Notify(ring.Notice{Kind: ring.NoticeMessage, Body: fmt.Sprint(i)})
		want = append(want, fmt.Sprint(i))
	}

	require.Eventually(t, func() bool { return len(sent.bodies()) == len(want) }, time.Second, time.Millisecond)
	require.Equal(t, want, sent.bodies())

	n.Close()
	n.Notify(ring.Notice{Kind: ring.NoticeMessage, Body: "late"})
	n.Close()
}

func TestNotifierDropsWhenFull(t *testing.T) {
	t.Parallel()

	n := NewNotifier(2)
	for i := 0; i < 5; i++ {
		n.Notify(ring.Notice{Kind: ring.NoticeTrustRequest, Body: fmt.Sprint(i)})
	}
	sent := &sentMsgs{}
	n.Attach(sent)
	n.Close()

	require.Eventually(t, func() bool { return len(sent.bodies()) == 2 }, time.Second, time.Millisecond)
	require.Equal(t, []string{"0", "1"}, sent.bodies())
}
