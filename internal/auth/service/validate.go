package service

import (
	"context"
	"strings"

	"realmgate/internal/auth/models"
	dErrors "realmgate/pkg/domain-errors"
)

// ClientSubjectPrefix marks token subjects that identify an OAuth client
// rather than an account.
const ClientSubjectPrefix = "client:"

// Validate inspects an access token and reports a structured result. It
// never returns an error to the transport; an unusable token yields
// Valid=false with a coarse error code.
func (s *Service) Validate(ctx context.Context, tokenString string) models.ValidateResult {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		code := models.ValidationErrTokenInvalid
		if dErrors.HasCode(err, dErrors.CodeExpired) {
			code = models.ValidationErrTokenExpired
		}
		return models.ValidateResult{Error: code}
	}
	if claims.IsRefresh() {
		return models.ValidateResult{Error: models.ValidationErrTokenInvalid}
	}

	if s.revocations != nil && claims.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Error("revocation check failed", "jti", claims.ID, "error", err)
		} else if revoked {
			return models.ValidateResult{Error: models.ValidationErrTokenRevoked}
		}
	}

	result := models.ValidateResult{
		Valid: true,
		Roles: claims.Roles(),
	}
	if claims.IssuedAt != nil {
		issuedAt := claims.IssuedAt.Time
		result.IssuedAt = &issuedAt
	}
	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		result.ExpiresAt = &expiresAt
	}

	// Client-credentials tokens have no backing account.
	if strings.HasPrefix(claims.Subject, ClientSubjectPrefix) {
		return result
	}

	a, err := s.accounts.FindByID(ctx, claims.Subject)
	if err != nil {
		return models.ValidateResult{Error: models.ValidationErrAccountNotFound}
	}
	view := a.Public()
	result.Account = &view
	return result
}
