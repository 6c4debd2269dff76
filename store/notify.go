package store

import (
	"sync"

	"github.com/warp/piggy-engine/ledger"
)

// =============================================================================
// BROADCASTER - Change notification fan-out
// =============================================================================
// Every durable write is broadcast to all subscribers, carrying the full
// normalized snapshot. Consumers treat the received snapshot as
// authoritative and replace (never merge into) their local view. This is
// the in-process analogue of the browser storage event that let other tabs
// converge on the same state.

const subscriberBuffer = 8

type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan ledger.Snapshot
	closed bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan ledger.Snapshot)}
}

// Subscribe returns a channel of snapshot updates and a cancel function.
// Slow consumers miss intermediate snapshots rather than blocking writers;
// the latest state always arrives eventually.
func (b *Broadcaster) Subscribe() (<-chan ledger.Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan ledger.Snapshot)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan ledger.Snapshot, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the snapshot to every subscriber without blocking.
func (b *Broadcaster) Publish(s ledger.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- s.Clone():
		default:
			// Buffer full: drop the oldest so the freshest snapshot wins.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.Clone():
			default:
			}
		}
	}
}

// Close terminates all subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
