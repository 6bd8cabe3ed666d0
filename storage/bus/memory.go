package bus

import (
	"context"
	"sync"

	"github.com/codesage/codesage/core"
)

// MemoryBus is an in-process Bus for tests and single-instance deployments.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
}

var _ core.Bus = (*MemoryBus)(nil)

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBus) Publish(_ context.Context, ev core.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[ev.Topic] {
		select {
		case sub.c <- ev:
		default:
			// slow subscriber, drop
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, topic string) (core.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &memorySubscription{bus: b, topic: topic, c: make(chan core.Event, 16)}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*memorySubscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	return sub, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for sub := range subs {
			sub.once.Do(func() { close(sub.c) })
		}
	}
	b.subs = make(map[string]map[*memorySubscription]struct{})
	return nil
}

type memorySubscription struct {
	bus   *MemoryBus
	topic string
	c     chan core.Event
	once  sync.Once
}

func (s *memorySubscription) C() <-chan core.Event { return s.c }

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if subs, ok := s.bus.subs[s.topic]; ok {
		if _, present := subs[s]; present {
			delete(subs, s)
			s.once.Do(func() { close(s.c) })
		}
	}
	return nil
}
