package audit

import (
	"context"
	"sync"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// InMemory keeps audit events in memory. Suitable for tests and
// single-process deployments; a durable sink can replace it behind Store.
type InMemory struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded trail in append order.
func (s *InMemory) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
