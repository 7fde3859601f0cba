package service

import (
	"context"
	"errors"

	"realmgate/internal/account"
	"realmgate/internal/audit"
	"realmgate/internal/auth/models"
	dErrors "realmgate/pkg/domain-errors"
	"realmgate/pkg/platform/sentinel"
)

// Register creates a new account from an email or phone plus password and
// returns its public view.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*account.View, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	a, err := account.New(s.newID(), req.Email, req.Phone, hash, nil, s.clock())
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "account already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.emit(audit.Event{Type: audit.EventAccountCreated, Subject: a.ID})
	view := a.Public()
	return &view, nil
}

// GetAccount returns the public view of an account.
func (s *Service) GetAccount(ctx context.Context, accountID string) (*account.View, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account lookup failed")
	}
	view := a.Public()
	return &view, nil
}

// UpdateRoles replaces an account's role set. New roles take effect on the
// next token issuance; tokens already in flight keep their old roles until
// they expire.
func (s *Service) UpdateRoles(ctx context.Context, accountID string, roles []string) (*account.View, error) {
	if len(roles) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one role is required")
	}

	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account lookup failed")
	}

	a.Roles = roles
	if err := s.accounts.Update(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update roles")
	}

	s.emit(audit.Event{Type: audit.EventAccountRolesChanged, Subject: a.ID})
	view := a.Public()
	return &view, nil
}
