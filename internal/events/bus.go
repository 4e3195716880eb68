package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/graphmind/graphmind/internal/clog"
)

// Bus fans a single emitted stream out to any number of subscribers, each
// with its own bounded channel. When a subscriber's buffer is full, an
// incoming non-critical event is dropped (the queued events stay), while an
// incoming critical event evicts the oldest queued event, whatever its kind;
// every drop is counted. Fan-out across subscribers runs concurrently via
// errgroup.
type Bus struct {
	seq   uint64
	start time.Time

	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	ch      chan Event
	dropped int64
}

// NewBus creates an empty event bus. start anchors the monotonic TsMono
// field (nanoseconds since start).
func NewBus(start time.Time) *Bus {
	return &Bus{start: start, subs: make(map[int]*subscriber)}
}

// Subscribe registers a new listener with the given buffer capacity and
// returns its channel plus an unsubscribe function.
func (b *Bus) Subscribe(capacity int) (<-chan Event, func()) {
	if capacity < 1 {
		capacity = 1
	}
	b.mu.Lock()
	id := b.next
	b.next++
	sub := &subscriber{ch: make(chan Event, capacity)}
	b.subs[id] = sub
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(sub.ch)
	}
	return sub.ch, unsub
}

// DroppedCount sums dropped-event counts across all current subscribers,
// for diagnostics.
func (b *Bus) DroppedCount() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total int64
	for _, s := range b.subs {
		total += atomic.LoadInt64(&s.dropped)
	}
	return total
}

// Emit assigns the next sequence number and fans the event out to every
// subscriber.
func (b *Bus) Emit(tickID uint64, kind Kind, payload any) Event {
	ev := Event{
		Seq:    atomic.AddUint64(&b.seq, 1),
		TickID: tickID,
		TsMono: time.Since(b.start).Nanoseconds(),
		TsWall: time.Now().UTC(),
		Kind:   kind,
		Payload: payload,
	}

	b.mu.RLock()
	recipients := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		recipients = append(recipients, s)
	}
	b.mu.RUnlock()

	if len(recipients) == 0 {
		return ev
	}

	isCritical := critical(kind)
	g, _ := errgroup.WithContext(context.Background())
	for _, s := range recipients {
		s := s
		g.Go(func() error {
			deliver(s, ev, isCritical)
			return nil
		})
	}
	_ = g.Wait()

	return ev
}

func deliver(s *subscriber, ev Event, isCritical bool) {
	select {
	case s.ch <- ev:
		return
	default:
	}

	if !isCritical {
		atomic.AddInt64(&s.dropped, 1)
		return
	}

	// Critical events evict the oldest queued entry to make room rather than
	// being dropped themselves.
	select {
	case <-s.ch:
		atomic.AddInt64(&s.dropped, 1)
	default:
	}
	select {
	case s.ch <- ev:
	default:
		clog.For(clog.CategoryEvents).Sugar().Warnw("critical event dropped, subscriber buffer contended", "kind", ev.Kind)
	}
}
