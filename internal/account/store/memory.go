// Package store provides directory implementations for accounts.
//
// Error contract: methods return sentinel.ErrNotFound (wrapped) when the
// requested account does not exist, sentinel.ErrConflict on uniqueness
// violations, and nil on success.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"realmgate/internal/account"
	"realmgate/pkg/platform/sentinel"
)

// InMemory keeps accounts in memory for tests and development. It favors
// clarity over performance; lookups by email, phone, and refresh token scan
// under a read lock.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[string]account.Account
}

// NewInMemory constructs an empty in-memory account directory.
func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[string]account.Account)}
}

func (s *InMemory) Create(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return fmt.Errorf("account id already exists: %w", sentinel.ErrConflict)
	}
	for _, existing := range s.accounts {
		if a.Email != "" && existing.Email == a.Email {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		if a.Phone != "" && existing.Phone == a.Phone {
			return fmt.Errorf("phone already registered: %w", sentinel.ErrConflict)
		}
	}
	s.accounts[a.ID] = *a
	return nil
}

func (s *InMemory) Update(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	a.UpdatedAt = time.Now()
	s.accounts[a.ID] = *a
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[id]; ok {
		return &a, nil
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Email != "" && a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) FindByPhone(_ context.Context, phone string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Phone != "" && a.Phone == phone {
			found := a
			return &found, nil
		}
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

func (s *InMemory) FindByRefreshToken(_ context.Context, token string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == "" {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	for _, a := range s.accounts {
		if a.RefreshToken == token {
			found := a
			return &found, nil
		}
	}
	return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
}

// SetRefreshToken stores the account's sole active refresh token,
// overwriting any previous one. Last writer wins; there is no
// compare-and-swap precondition.
func (s *InMemory) SetRefreshToken(_ context.Context, accountID, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	a.RefreshToken = token
	a.RefreshTokenExpiresAt = &expiresAt
	a.UpdatedAt = time.Now()
	s.accounts[accountID] = a
	return nil
}

func (s *InMemory) ClearRefreshToken(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	a.RefreshToken = ""
	a.RefreshTokenExpiresAt = nil
	a.UpdatedAt = time.Now()
	s.accounts[accountID] = a
	return nil
}
