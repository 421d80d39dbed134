// Package ledger holds the in-memory, authoritative record of per-admin
// voice time for the lifetime of the process. The external message log is
// only a best-effort durability mirror of these records.
package ledger

import (
	"sort"
	"sync"
	"time"
)

// Session is one closed interval of voice-channel presence.
// Immutable once created.
type Session struct {
	ClosedAt time.Time
	Duration time.Duration
}

// adminRecord is the mutable per-admin state. openedAt is non-zero iff the
// admin is currently inside a tracked channel.
type adminRecord struct {
	displayName string
	total       time.Duration
	openedAt    time.Time
	sessions    []Session
}

// Snapshot is a consistent read-only copy of one admin's record.
type Snapshot struct {
	AdminID     string
	DisplayName string
	Total       time.Duration
	OpenedAt    time.Time
	Sessions    []Session
}

// Open reports whether the snapshot was taken while a session was open.
func (s Snapshot) Open() bool {
	return !s.OpenedAt.IsZero()
}

// Ledger maps admin IDs to their records. All access goes through the
// lock; Close updates the total and the session list in one critical
// section so readers never see one without the other.
type Ledger struct {
	mu     sync.RWMutex
	admins map[string]*adminRecord
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{admins: make(map[string]*adminRecord)}
}

func (l *Ledger) record(adminID string) *adminRecord {
	rec, ok := l.admins[adminID]
	if !ok {
		rec = &adminRecord{}
		l.admins[adminID] = rec
	}
	return rec
}

// Open marks the admin as inside a tracked channel since at. Opening an
// already-open admin is a no-op: a duplicate join signal must never move
// the session start, so the first open wins.
func (l *Ledger) Open(adminID string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(adminID)
	if !rec.openedAt.IsZero() {
		return
	}
	rec.openedAt = at
}

// Close ends the admin's open session at the given time, appends the
// closed session and adds its duration to the running total. Closing an
// admin with no open session returns false and mutates nothing, which
// guards against duplicate or out-of-order leave events.
func (l *Ledger) Close(adminID string, at time.Time) (Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.admins[adminID]
	if !ok || rec.openedAt.IsZero() {
		return Session{}, false
	}

	sess := Session{ClosedAt: at, Duration: at.Sub(rec.openedAt)}
	rec.sessions = append(rec.sessions, sess)
	rec.total += sess.Duration
	rec.openedAt = time.Time{}
	return sess, true
}

// Rehydrate sets the baseline total and display name recovered from the
// external log. It never touches the session list or an open marker; the
// recovered history has no per-session breakdown.
func (l *Ledger) Rehydrate(adminID string, total time.Duration, displayName string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.record(adminID)
	rec.total = total
	rec.displayName = displayName
}

// SetName updates the stored display name without changing timing state.
func (l *Ledger) SetName(adminID, displayName string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(adminID).displayName = displayName
}

// Snapshot returns a consistent copy of one admin's record.
func (l *Ledger) Snapshot(adminID string) (Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.admins[adminID]
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(adminID, rec), true
}

// Snapshots returns consistent copies of every record, ordered by admin ID.
func (l *Ledger) Snapshots() []Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Snapshot, 0, len(l.admins))
	for id, rec := range l.admins {
		out = append(out, snapshotOf(id, rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdminID < out[j].AdminID })
	return out
}

func snapshotOf(adminID string, rec *adminRecord) Snapshot {
	sessions := make([]Session, len(rec.sessions))
	copy(sessions, rec.sessions)
	return Snapshot{
		AdminID:     adminID,
		DisplayName: rec.displayName,
		Total:       rec.total,
		OpenedAt:    rec.openedAt,
		Sessions:    sessions,
	}
}
