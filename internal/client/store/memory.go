// Package store provides directory implementations for OAuth client
// registrations.
//
// Error contract: methods return sentinel.ErrNotFound (wrapped) when the
// requested client does not exist, sentinel.ErrConflict on uniqueness
// violations, and nil on success. FindByClientCredentials additionally
// treats an inactive client or wrong secret as not found, so callers cannot
// probe which check failed.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"realmgate/internal/client"
	"realmgate/pkg/platform/sentinel"
)

// InMemory keeps client registrations in memory for tests and development.
type InMemory struct {
	mu      sync.RWMutex
	clients map[string]client.Client // keyed by public client_id
}

// NewInMemory constructs an empty in-memory client directory.
func NewInMemory() *InMemory {
	return &InMemory{clients: make(map[string]client.Client)}
}

func (s *InMemory) Create(_ context.Context, c *client.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ClientID]; ok {
		return fmt.Errorf("client_id already registered: %w", sentinel.ErrConflict)
	}
	s.clients[c.ClientID] = *c
	return nil
}

func (s *InMemory) Update(_ context.Context, c *client.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ClientID]; !ok {
		return fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	s.clients[c.ClientID] = *c
	return nil
}

func (s *InMemory) Delete(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[clientID]; !ok {
		return fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	delete(s.clients, clientID)
	return nil
}

func (s *InMemory) FindByClientID(_ context.Context, clientID string) (*client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.clients[clientID]; ok {
		return &c, nil
	}
	return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
}

// FindByClientCredentials resolves a client by exact id/secret match,
// requiring it to be active.
func (s *InMemory) FindByClientCredentials(_ context.Context, clientID, clientSecret string) (*client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[clientID]
	if !ok || c.ClientSecret != clientSecret || !c.IsActive {
		return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	return &c, nil
}

func (s *InMemory) List(_ context.Context) ([]client.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]client.Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}
