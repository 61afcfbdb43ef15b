package schedule

import (
	"sync"
	"time"
)

// slotLocks serializes check-then-insert on a (calendar, window) pair so two
// concurrent requests for the same slot on this instance cannot both observe
// "available". Cross-instance racers are still only guarded by whatever the
// remote calendar guarantees on insert.
type slotLocks struct {
	mu      sync.Mutex
	entries map[string]*slotLockEntry
}

type slotLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSlotLocks() slotLocks {
	return slotLocks{entries: make(map[string]*slotLockEntry)}
}

func slotLockKey(calendarOwner string, start time.Time) string {
	return calendarOwner + "|" + start.UTC().Truncate(time.Minute).Format(time.RFC3339)
}

// acquire blocks until the key's lock is held and returns its release func.
func (l *slotLocks) acquire(key string) func() {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &slotLockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
