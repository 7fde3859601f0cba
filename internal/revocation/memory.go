package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemory is a process-local revocation list for tests and single-instance
// deployments. Expired entries are dropped lazily on lookup.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	clock   func() time.Time
}

// InMemoryOption configures an InMemory revocation list.
type InMemoryOption func(*InMemory)

// WithMemoryClock sets the time source, for deterministic expiry in tests.
func WithMemoryClock(clock func() time.Time) InMemoryOption {
	return func(m *InMemory) { m.clock = clock }
}

// NewInMemory constructs an empty in-memory revocation list.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	m := &InMemory{entries: make(map[string]time.Time), clock: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *InMemory) Revoke(_ context.Context, jti string, until time.Time) error {
	if jti == "" || !until.After(m.clock()) {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[jti] = until
	return nil
}

func (m *InMemory) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.entries[jti]
	if !ok {
		return false, nil
	}
	if !until.After(m.clock()) {
		delete(m.entries, jti)
		return false, nil
	}
	return true, nil
}
