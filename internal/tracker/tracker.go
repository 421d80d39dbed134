// Package tracker turns voice-presence transitions into ledger sessions.
package tracker

import (
	"log"
	"time"

	"admintime/internal/ledger"
)

// Event is one voice-state change for a platform member. PrevChannel and
// NewChannel are empty when the member was (or is) in no voice channel.
type Event struct {
	AdminID     string
	PrevChannel string
	NewChannel  string
	Roles       []string
}

// Persister receives the write half of the durable mirror. Implemented by
// storelog.Reconciler.
type Persister interface {
	Persist(adminID string)
}

// Tracker is the per-admin join/leave state machine. Only members holding
// both the admin and co-admin roles are tracked; everyone else is filtered
// out before any state changes. (The upstream behavior this reproduces
// requires the two roles together, not either one.)
type Tracker struct {
	ledger       *ledger.Ledger
	persister    Persister
	adminRole    string
	coAdminRole  string
	now          func() time.Time
	persistAsync bool
}

// New creates a tracker writing into the given ledger and mirroring closed
// sessions through the persister.
func New(l *ledger.Ledger, p Persister, adminRole, coAdminRole string) *Tracker {
	return &Tracker{
		ledger:       l,
		persister:    p,
		adminRole:    adminRole,
		coAdminRole:  coAdminRole,
		now:          time.Now,
		persistAsync: true,
	}
}

// HandleEvent processes one voice-state change. Joins open a session,
// leaving all voice channels closes it and triggers persistence; moves
// between channels and state changes with no channel transition (mute,
// deafen) do nothing.
func (t *Tracker) HandleEvent(ev Event) {
	if !t.tracked(ev.Roles) {
		return
	}

	now := t.now()
	switch {
	case ev.NewChannel != "" && ev.PrevChannel == "":
		t.ledger.Open(ev.AdminID, now)
		log.Printf("tracker: %s joined voice at %s", ev.AdminID, now.Format(time.RFC3339))

	case ev.NewChannel == "" && ev.PrevChannel != "":
		sess, ok := t.ledger.Close(ev.AdminID, now)
		if !ok {
			return
		}
		log.Printf("tracker: %s left voice, +%s", ev.AdminID, sess.Duration.Round(time.Second))
		if t.persistAsync {
			go t.persister.Persist(ev.AdminID)
		} else {
			t.persister.Persist(ev.AdminID)
		}
	}
}

func (t *Tracker) tracked(roles []string) bool {
	return hasRole(roles, t.adminRole) && hasRole(roles, t.coAdminRole)
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
