package notify

import (
	"context"
	"log"
	"sync"
)

// LedgerCapacity caps how many notifications a user's ledger retains.
// Appending beyond it evicts the oldest entries.
const LedgerCapacity = 50

// HistoryStore persists a user's notification sequence. Implementations live
// in internal/store; absent or corrupt history loads as empty, never as an
// error the engine has to handle.
type HistoryStore interface {
	LoadHistory(ctx context.Context, userID string) ([]Notification, error)
	SaveHistory(ctx context.Context, userID string, entries []Notification) error
	DeleteHistory(ctx context.Context, userID string) error
}

// Ledger is one user's ordered notification collection, newest first. The
// in-memory state is authoritative for the running process; persistence is a
// best-effort mirror for the next session, so a failed write never rolls a
// mutation back.
type Ledger struct {
	userID string
	store  HistoryStore

	mu      sync.Mutex
	entries []Notification
	unread  int
}

// NewLedger creates an empty ledger for userID. Call Load to pull the
// persisted history.
func NewLedger(userID string, store HistoryStore) *Ledger {
	return &Ledger{userID: userID, store: store}
}

// Load reads the persisted sequence, de-duplicating by id with the first
// stored occurrence winning. If deduplication repaired anything the cleaned
// sequence is written back immediately.
func (l *Ledger) Load(ctx context.Context) {
	stored, err := l.store.LoadHistory(ctx, l.userID)
	if err != nil {
		log.Printf("ledger: load history for %s: %v", l.userID, err)
		stored = nil
	}

	seen := make(map[string]struct{}, len(stored))
	deduped := make([]Notification, 0, len(stored))
	for _, n := range stored {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		deduped = append(deduped, n)
	}

	l.mu.Lock()
	l.entries = deduped
	l.unread = countUnread(deduped)
	l.mu.Unlock()

	if len(deduped) != len(stored) {
		log.Printf("ledger: repaired %d duplicate entries for %s", len(stored)-len(deduped), l.userID)
		l.persist(ctx, deduped)
	}
}

// Append inserts a notification at the head of the sequence. An entry whose
// id is already present is silently ignored; the insert is idempotent.
// Returns whether the ledger changed.
func (l *Ledger) Append(ctx context.Context, n Notification) bool {
	l.mu.Lock()
	for _, existing := range l.entries {
		if existing.ID == n.ID {
			l.mu.Unlock()
			return false
		}
	}

	entries := make([]Notification, 0, len(l.entries)+1)
	entries = append(entries, n)
	entries = append(entries, l.entries...)
	l.unread++
	if len(entries) > LedgerCapacity {
		// Evicted tail entries take their unread status with them.
		for _, evicted := range entries[LedgerCapacity:] {
			if !evicted.Read {
				l.unread--
			}
		}
		entries = entries[:LedgerCapacity]
	}
	l.entries = entries
	snapshot := append([]Notification(nil), entries...)
	l.mu.Unlock()

	l.persist(ctx, snapshot)
	return true
}

// MarkRead flips one entry to read. Absent or already-read ids are a no-op.
func (l *Ledger) MarkRead(ctx context.Context, id string) {
	l.mu.Lock()
	changed := false
	for i := range l.entries {
		if l.entries[i].ID == id && !l.entries[i].Read {
			l.entries[i].Read = true
			changed = true
			break
		}
	}
	l.unread = countUnread(l.entries)
	snapshot := append([]Notification(nil), l.entries...)
	l.mu.Unlock()

	if changed {
		l.persist(ctx, snapshot)
	}
}

// MarkAllRead flips every entry to read.
func (l *Ledger) MarkAllRead(ctx context.Context) {
	l.mu.Lock()
	for i := range l.entries {
		l.entries[i].Read = true
	}
	l.unread = 0
	snapshot := append([]Notification(nil), l.entries...)
	l.mu.Unlock()

	l.persist(ctx, snapshot)
}

// Clear empties the ledger and removes the persisted blob entirely, which is
// distinct from persisting an empty sequence.
func (l *Ledger) Clear(ctx context.Context) {
	l.mu.Lock()
	l.entries = nil
	l.unread = 0
	l.mu.Unlock()

	if err := l.store.DeleteHistory(ctx, l.userID); err != nil {
		log.Printf("ledger: delete history for %s: %v", l.userID, err)
	}
}

// Snapshot returns a copy of the entries (newest first) and the unread count.
func (l *Ledger) Snapshot() ([]Notification, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Notification(nil), l.entries...), l.unread
}

// UnreadCount returns the number of unread entries.
func (l *Ledger) UnreadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unread
}

func (l *Ledger) persist(ctx context.Context, entries []Notification) {
	if err := l.store.SaveHistory(ctx, l.userID, entries); err != nil {
		log.Printf("ledger: save history for %s: %v", l.userID, err)
	}
}

func countUnread(entries []Notification) int {
	unread := 0
	for _, n := range entries {
		if !n.Read {
			unread++
		}
	}
	return unread
}
