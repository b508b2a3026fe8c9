package core

import (
	"fmt"
	"sort"
	"sync"
)

// Ledger records messages per room and the receiver set computed for each one.
// Receiver sets are snapshots: later membership changes never touch them.
type Ledger struct {
	mu       sync.RWMutex
	byRoom   map[string]map[int64]struct{}
	receipts map[int64]Receipt
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byRoom:   make(map[string]map[int64]struct{}),
		receipts: make(map[int64]Receipt),
	}
}

// Record stores msg under its room and computes its receivers from members.
// Recording the same message ID twice returns the receivers stored the first time.
func (l *Ledger) Record(msg Message, members []User) ([]User, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no members in room %q for message %d", ErrInvariantViolation, msg.Room, msg.ID)
	}

	receivers := make([]User, 0, len(members))
	for _, u := range members {
		if Visible(msg, u) {
			receivers = append(receivers, u)
		}
	}
	sortUsers(receivers)

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.receipts[msg.ID]; ok {
		return cloneUsers(existing.Receivers), nil
	}

	ids, ok := l.byRoom[msg.Room]
	if !ok {
		ids = make(map[int64]struct{})
		l.byRoom[msg.Room] = ids
	}
	ids[msg.ID] = struct{}{}
	l.receipts[msg.ID] = Receipt{Message: msg, Receivers: receivers}

	return cloneUsers(receivers), nil
}

// ReceiversOf returns the receiver snapshot of a recorded message.
func (l *Ledger) ReceiversOf(id int64) ([]User, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.receipts[id]
	if !ok {
		return nil, false
	}
	return cloneUsers(r.Receivers), true
}

// Receipts exports every recorded message with its receivers, ordered by ID.
func (l *Ledger) Receipts() []Receipt {
	l.mu.RLock()
	out := make([]Receipt, 0, len(l.receipts))
	for _, r := range l.receipts {
		out = append(out, Receipt{Message: r.Message, Receivers: cloneUsers(r.Receivers)})
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Message.ID < out[j].Message.ID })
	return out
}

// CountsByRoom returns the number of recorded messages per room.
func (l *Ledger) CountsByRoom() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int, len(l.byRoom))
	for room, ids := range l.byRoom {
		counts[room] = len(ids)
	}
	return counts
}

func cloneUsers(users []User) []User {
	out := make([]User, len(users))
	copy(out, users)
	return out
}
