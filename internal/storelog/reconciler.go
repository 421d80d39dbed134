// Package storelog mirrors the ledger into an external message channel:
// one pinned message per admin, edited in place as the total grows, and
// scanned back at startup to recover baselines.
package storelog

import (
	"fmt"
	"log"
	"sync"

	"admintime/internal/ledger"
)

// Message is one entry of the external log.
type Message struct {
	ID   string
	Body string
}

// ChannelLog is the external message store. ListPage returns messages
// newest-first, at most one page at a time; an empty page means the log
// is exhausted.
type ChannelLog interface {
	ListPage(beforeID string) ([]Message, error)
	Create(body string) (id string, err error)
	Edit(id, body string) error
	Pin(id string) error
}

// NameResolver looks up the current display name for an admin.
type NameResolver interface {
	ResolveName(adminID string) (string, error)
}

const fallbackName = "Unknown"

// Reconciler rebuilds ledger baselines from the channel log at startup and
// persists closed sessions to it afterwards.
//
// Persistence is best-effort: the ledger stays authoritative for the
// running process, and a crash between a close and its persist loses that
// session's durability on the next restart. That gap is accepted; the log
// stores only running totals anyway.
type Reconciler struct {
	channel ChannelLog
	names   NameResolver
	ledger  *ledger.Ledger

	mu      sync.Mutex
	handles map[string]string // adminID -> message ID
	persist map[string]*sync.Mutex
}

// New creates a reconciler over the given channel log.
func New(channel ChannelLog, names NameResolver, l *ledger.Ledger) *Reconciler {
	return &Reconciler{
		channel: channel,
		names:   names,
		ledger:  l,
		handles: make(map[string]string),
		persist: make(map[string]*sync.Mutex),
	}
}

// Load scans the whole channel log newest-first and rehydrates the ledger
// from every parseable record, remembering each admin's message handle.
// Messages that do not parse are skipped: the channel may hold unrelated
// content. The newest record per admin wins, so re-running Load against an
// unchanged log yields identical baselines. Transport errors abort the
// scan; starting with a partial baseline would zero recovered totals.
func (r *Reconciler) Load() error {
	seen := make(map[string]bool)
	loaded := 0
	beforeID := ""

	for {
		page, err := r.channel.ListPage(beforeID)
		if err != nil {
			return fmt.Errorf("list log page before %q: %w", beforeID, err)
		}
		if len(page) == 0 {
			break
		}

		for _, msg := range page {
			rec, err := ParseRecord(msg.Body)
			if err != nil {
				continue
			}
			if seen[rec.AdminID] {
				continue
			}
			seen[rec.AdminID] = true

			r.ledger.Rehydrate(rec.AdminID, rec.Total, rec.DisplayName)
			r.mu.Lock()
			r.handles[rec.AdminID] = msg.ID
			r.mu.Unlock()
			loaded++
		}

		beforeID = page[len(page)-1].ID
	}

	log.Printf("storelog: loaded %d admin records from channel log", loaded)
	return nil
}

// Persist writes the admin's current total to the channel log, editing the
// existing message when a handle is known and otherwise creating and
// pinning a new one. Failures are logged and swallowed: the in-memory
// close is never rolled back.
//
// Persists for the same admin are serialized by a per-admin lock, and the
// ledger is snapshotted after the lock is taken, so a queued persist can
// never overwrite a newer total with a stale one.
func (r *Reconciler) Persist(adminID string) {
	lock := r.persistLock(adminID)
	lock.Lock()
	defer lock.Unlock()

	snap, ok := r.ledger.Snapshot(adminID)
	if !ok {
		log.Printf("storelog: no ledger record for %s, nothing to persist", adminID)
		return
	}

	name, err := r.names.ResolveName(adminID)
	if err != nil || name == "" {
		log.Printf("storelog: resolve name for %s: %v", adminID, err)
		name = fallbackName
	}
	r.ledger.SetName(adminID, name)

	body := Record{AdminID: adminID, Total: snap.Total, DisplayName: name}.Body()

	r.mu.Lock()
	handle, exists := r.handles[adminID]
	r.mu.Unlock()

	if exists {
		if err := r.channel.Edit(handle, body); err != nil {
			log.Printf("storelog: edit record for %s: %v", adminID, err)
		}
		return
	}

	id, err := r.channel.Create(body)
	if err != nil {
		log.Printf("storelog: create record for %s: %v", adminID, err)
		return
	}
	r.mu.Lock()
	r.handles[adminID] = id
	r.mu.Unlock()

	if err := r.channel.Pin(id); err != nil {
		log.Printf("storelog: pin record for %s: %v", adminID, err)
	}
}

func (r *Reconciler) persistLock(adminID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.persist[adminID]
	if !ok {
		lock = &sync.Mutex{}
		r.persist[adminID] = lock
	}
	return lock
}

// Handle returns the log message ID currently mapped to the admin.
func (r *Reconciler) Handle(adminID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.handles[adminID]
	return id, ok
}
