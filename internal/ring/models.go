package ring

import (
	"fmt"
	"time"
)

// Account is one daemon account as reported by the last full refresh.
// Enabled tracks the registration state and is updated in place by
// registration notifications.
type Account struct {
	ID      string
	RingID  string
	Alias   string
	Enabled bool
}

// Label is the display form "alias (ring id)".
func (a Account) Label() string {
	return fmt.Sprintf("%s (%s)", a.Alias, a.RingID)
}

// Interaction is a received text message. It is never modified once logged.
// ID is unique within the log.
type Interaction struct {
	ID     string
	Author string
	Body   string
	Time   time.Time
}

// Entry is an Interaction keyed by the account that received it.
type Entry struct {
	AccountID   string
	Interaction Interaction
}

// Snapshot is a consistent copy of the manager state.
type Snapshot struct {
	Accounts []Account
	Entries  []Entry
}

// NoticeKind says what a Notice reports.
type NoticeKind int

const (
	NoticeMessage NoticeKind = iota + 1
	NoticeTrustRequest
)

// Notice surfaces an incoming event to the operator. InteractionID names
// the logged Interaction for NoticeMessage.
type Notice struct {
	Kind          NoticeKind
	AccountID     string
	From          string
	Body          string
	InteractionID string
}

func (n Notice) String() string {
	switch n.Kind {
	case NoticeMessage:
		return fmt.Sprintf("New interaction for %s from %s", n.AccountID, n.From)
	case NoticeTrustRequest:
		return fmt.Sprintf("New request for %s from %s", n.AccountID, n.From)
	default:
		return ""
	}
}
