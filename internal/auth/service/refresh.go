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

// Refresh rotates a refresh token into a new token pair. The presented
// token must match the one stored on the account; any verification failure
// revokes the stored token so a stolen-but-expired token cannot linger.
func (s *Service) Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenBundle, error) {
	if req == nil || req.RefreshToken == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "refresh_token is required")
	}

	a, err := s.accounts.FindByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observeRefresh("rejected")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "refresh token not recognized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "refresh token lookup failed")
	}

	claims, err := s.tokens.Verify(req.RefreshToken)
	switch {
	case err != nil:
		s.revokeStoredRefresh(ctx, a)
		if dErrors.HasCode(err, dErrors.CodeExpired) {
			return nil, dErrors.New(dErrors.CodeExpired, "refresh token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid refresh token")
	case claims.Subject != a.ID, !claims.IsRefresh():
		s.revokeStoredRefresh(ctx, a)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid refresh token")
	}

	// The audience claim carries the realm the pair was issued for, so
	// rotation stays in the original realm. An audience that no longer
	// resolves to a realm fails issuance with not-found.
	realmName := ""
	if len(claims.Audience) > 0 {
		realmName = claims.Audience[0]
	}

	bundle, err := s.issuePair(ctx, a, realmName)
	if err != nil {
		return nil, err
	}

	s.observeRefresh("success")
	s.emit(audit.Event{Type: audit.EventTokenRefreshed, Subject: a.ID, Realm: realmName})
	return bundle, nil
}

// revokeStoredRefresh clears the account's stored refresh token after a
// failed rotation attempt. Best effort; the rotation error is what the
// caller sees.
func (s *Service) revokeStoredRefresh(ctx context.Context, a *account.Account) {
	if err := s.accounts.ClearRefreshToken(ctx, a.ID); err != nil {
		s.logger.Error("failed to revoke refresh token", "account_id", a.ID, "error", err)
	}
	s.observeRefresh("revoked")
	s.emit(audit.Event{Type: audit.EventRefreshRevoked, Subject: a.ID})
}

func (s *Service) observeRefresh(result string) {
	if s.metrics != nil {
		s.metrics.IncTokenRefreshes(result)
	}
}
