package client

import (
	"sync"
	"time"
)

// PendingInput is one sequence-numbered input awaiting server confirmation.
type PendingInput struct {
	Seq    uint64
	SentAt time.Time
	Input  InputState
}

// pendingLedger tracks unacknowledged inputs for the local player. Entries
// leave the ledger when the server echoes a sequence number at or above
// theirs, or when they age past the timeout.
type pendingLedger struct {
	mu      sync.Mutex
	entries []PendingInput
	timeout time.Duration
}

func newPendingLedger(timeout time.Duration) *pendingLedger {
	if timeout <= 0 {
		timeout = defaultPendingTimeout
	}
	return &pendingLedger{timeout: timeout}
}

func (l *pendingLedger) record(p PendingInput) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, p)
}

// ack drops every entry with a sequence number at or below seq.
func (l *pendingLedger) ack(seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.Seq > seq {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// expire drops entries older than the timeout and reports how many went.
func (l *pendingLedger) expire(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	expired := 0
	for _, e := range l.entries {
		if now.Sub(e.SentAt) > l.timeout {
			expired++
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	return expired
}

// since returns, in sequence order, the retained entries with Seq > seq.
// This is the replay set for reconciliation: reset predicted state to the
// authoritative snapshot, then reapply these.
func (l *pendingLedger) since(seq uint64) []PendingInput {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PendingInput, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

func (l *pendingLedger) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
