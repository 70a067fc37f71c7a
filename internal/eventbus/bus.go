// Package eventbus decouples the planner from its observers.
//
// Arbitration decisions (accepted placements, drops, fallbacks) are published
// here so diagnostics and tests can watch policy enforcement without scraping
// logs.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the planner.
const (
	TypeBlockAccepted  = "plan.block_accepted"
	TypeBlockRejected  = "plan.block_rejected"
	TypeRecFallback    = "recommend.fallback_used"
	TypePassCompleted  = "replan.pass_completed"
	TypeConfigReloaded = "config.reloaded"
)

// Event is a lightweight, in-memory signal.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Slow subscribers may drop events (bounded backpressure).
//
// Data should be small and JSON-serializable.
type Event struct {
	Type string
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a simple in-memory fanout bus. It owns no goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64

	dropped atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	// Snapshot subscribers so Publish never holds the lock while sending.
	b.mu.RLock()
	chs := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		// The channel is intentionally left open; closing it would race
		// with a concurrent Publish holding a snapshot.
	}
	return ch, unsubscribe
}

// Dropped reports how many events were discarded on full subscriber buffers.
func (b *memBus) Dropped() uint64 { return b.dropped.Load() }
