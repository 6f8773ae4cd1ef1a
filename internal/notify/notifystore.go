// Package notify implements the Notifier (C10) and NotifyStore (C11) of
// spec.md §4.10–§4.11: a bounded worker pool that fires HTTP refresh
// callbacks, and a per-namespace FIFO log of notification outcomes.
package notify

import (
	"sync"
	"time"
)

// Status is a notification's lifecycle state. Transitions are one-way:
// IN_PROGRESS -> SUCCESS or IN_PROGRESS -> FAILED; no other transition is
// valid (spec.md §3).
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
)

// Notification is the structured record returned by NotifyStore.Recent and
// the `/namespace/notify` endpoint.
type Notification struct {
	ID             string
	Status         Status
	InitiatedTime  time.Time
}

const capacity = 20

// namespaceLog is a bounded FIFO with its own mutex. UpdateAtomic and
// Record share this same mutex, fixing the unsynchronized scan the spec
// explicitly calls out as a bug to not reproduce (spec.md §9).
type namespaceLog struct {
	mu      sync.Mutex
	entries []Notification
}

// Store is the NotifyStore (C11): a process-wide map of per-namespace
// bounded FIFOs.
type Store struct {
	mu   sync.Mutex // guards the logs map itself, not entries within a log
	logs map[string]*namespaceLog
}

// NewStore constructs an empty NotifyStore.
func NewStore() *Store {
	return &Store{logs: make(map[string]*namespaceLog)}
}

func (s *Store) logFor(ns string) *namespaceLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[ns]
	if !ok {
		l = &namespaceLog{}
		s.logs[ns] = l
	}
	return l
}

// Record appends a notification to ns's log, evicting the oldest entry
// first if already at capacity (spec.md §4.11).
func (s *Store) Record(ns string, n Notification) {
	l := s.logFor(ns)
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= capacity {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, n)
}

// UpdateAtomic finds the entry with the given id (scanning in FIFO order),
// applies transform in place preserving its position, and returns the
// updated value. Returns (Notification{}, false) if no entry matches. The
// scan and mutation happen under the same lock Record uses, closing the
// unsynchronized-scan gap spec.md §9 flags in the source this was ported
// from.
func (s *Store) UpdateAtomic(ns, id string, transform func(Notification) Notification) (Notification, bool) {
	l := s.logFor(ns)
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i] = transform(l.entries[i])
			return l.entries[i], true
		}
	}
	return Notification{}, false
}

// Recent returns up to max entries for ns, sorted by InitiatedTime
// descending (spec.md §4.11).
func (s *Store) Recent(ns string, max int) []Notification {
	l := s.logFor(ns)
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Notification, len(l.entries))
	copy(out, l.entries)

	// Insertion-sort descending by time: the list is already close to
	// time-ordered (FIFO append order), so a simple stable sort is both
	// correct and cheap at this bounded size (<=20 entries).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].InitiatedTime.After(out[j-1].InitiatedTime); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	if max > 0 && max < len(out) {
		out = out[:max]
	}
	return out
}
