// Package eventbus fans todo activity out to in-process listeners.
//
// Publish never blocks. A listener whose buffer is full misses the event
// and the bus counts the drop.
package eventbus

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	logx "todobot/pkg/logx"
)

type Event struct {
	Type string
	Time time.Time
	Data map[string]any
}

type Bus interface {
	Publish(e Event)
	// Subscribe delivers events whose Type starts with prefix ("" for all).
	Subscribe(prefix string, buffer int) (ch <-chan Event, unsubscribe func())
	Dropped() uint64
}

func New() Bus {
	return &memBus{subs: map[uint64]*sub{}}
}

type sub struct {
	prefix string
	ch     chan Event

	mu     sync.Mutex
	closed bool
}

// offer is a non-blocking send guarded against a concurrent unsubscribe.
func (s *sub) offer(e Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- e:
		return true
	default:
		return false
	}
}

func (s *sub) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

type memBus struct {
	mu      sync.RWMutex
	subs    map[uint64]*sub
	seq     atomic.Uint64
	dropped atomic.Uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	targets := make([]*sub, 0, len(b.subs))
	for _, s := range b.subs {
		if strings.HasPrefix(e.Type, s.prefix) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if !s.offer(e) {
			b.dropped.Add(1)
		}
	}
}

func (b *memBus) Subscribe(prefix string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	s := &sub{prefix: prefix, ch: make(chan Event, buffer)}
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = s
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		s.close()
	}
	return s.ch, unsub
}

func (b *memBus) Dropped() uint64 { return b.dropped.Load() }

// LogEvents writes every event matching prefix to log at debug level until
// ctx ends.
func LogEvents(ctx context.Context, b Bus, prefix string, log logx.Logger) {
	ch, unsub := b.Subscribe(prefix, 64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			attrs := make([]logx.Field, 0, len(e.Data)+1)
			attrs = append(attrs, logx.String("event", e.Type))
			for k, v := range e.Data {
				attrs = append(attrs, logx.Any(k, v))
			}
			log.Debug("event", attrs...)
		}
	}
}
