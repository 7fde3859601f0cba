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

// Login authenticates an account by email or phone and returns a fresh
// token pair. Absent accounts and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenBundle, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		a          *account.Account
		err        error
		identifier string
	)
	switch req.LoginType {
	case models.LoginTypeEmail:
		identifier = req.Email
		a, err = s.accounts.FindByEmail(ctx, req.Email)
	case models.LoginTypePhone:
		identifier = req.Phone
		a, err = s.accounts.FindByPhone(ctx, req.Phone)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observeLogin(ctx, "failure", identifier, req.Realm)
			return nil, errInvalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account lookup failed")
	}

	if !s.hasher.Verify(req.Password, a.PasswordHash) {
		s.observeLogin(ctx, "failure", identifier, req.Realm)
		return nil, errInvalidCredentials()
	}

	bundle, err := s.issuePair(ctx, a, req.Realm)
	if err != nil {
		return nil, err
	}

	s.observeLogin(ctx, "success", a.ID, req.Realm)
	return bundle, nil
}

// Logout revokes the account's refresh token and, when a revocation list is
// configured, blocks the presented access token for the rest of its life.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Verify(accessToken)
	if err != nil {
		return err
	}

	if err := s.accounts.ClearRefreshToken(ctx, claims.Subject); err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear refresh token")
		}
		// Client principals have no stored refresh token to clear.
	}

	if s.revocations != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke access token")
		}
	}

	s.emit(audit.Event{Type: audit.EventLogout, Subject: claims.Subject})
	return nil
}

func (s *Service) observeLogin(_ context.Context, result, subject, realmName string) {
	if s.metrics != nil {
		s.metrics.IncLogins(result)
	}
	eventType := audit.EventLoginFailed
	if result == "success" {
		eventType = audit.EventLoginSucceeded
	} else {
		s.logger.Info("login rejected", "identifier", subject)
	}
	s.emit(audit.Event{Type: eventType, Subject: subject, Realm: realmName})
}
