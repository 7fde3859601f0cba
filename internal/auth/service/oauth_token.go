package service

import (
	"context"
	"errors"
	"time"

	"realmgate/internal/audit"
	"realmgate/internal/auth/models"
	"realmgate/internal/client"
	"realmgate/internal/token"
	dErrors "realmgate/pkg/domain-errors"
	"realmgate/pkg/platform/sentinel"
)

// OAuthToken executes an RFC 6749 token request. Supported grants are
// password and client_credentials; both issue token pairs in the default
// realm. Grant refresh tokens are not persisted against an account, so they
// are self-contained until expiry.
func (s *Service) OAuthToken(ctx context.Context, req *models.OAuthTokenRequest) (*models.OAuthTokenResponse, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := s.clients.FindByClientCredentials(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observeGrant(req.GrantType, "rejected", req.ClientID)
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid client credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "client lookup failed")
	}

	switch req.GrantType {
	case string(client.GrantPassword):
		return s.passwordGrant(ctx, c, req)
	case string(client.GrantClientCredentials):
		return s.clientCredentialsGrant(ctx, c, req)
	default:
		s.observeGrant(req.GrantType, "rejected", c.ClientID)
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported grant_type")
	}
}

// passwordGrant authenticates a resource owner on behalf of the client and
// issues an access token carrying the account's roles.
func (s *Service) passwordGrant(ctx context.Context, c *client.Client, req *models.OAuthTokenRequest) (*models.OAuthTokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username and password are required")
	}
	if !c.AllowsGrant(client.GrantPassword) {
		s.observeGrant(req.GrantType, "rejected", c.ClientID)
		return nil, dErrors.New(dErrors.CodeForbidden, "grant type not allowed for this client")
	}

	a, err := s.accounts.FindByEmail(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observeGrant(req.GrantType, "rejected", c.ClientID)
			return nil, errInvalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account lookup failed")
	}
	if !s.hasher.Verify(req.Password, a.PasswordHash) {
		s.observeGrant(req.GrantType, "rejected", c.ClientID)
		return nil, errInvalidCredentials()
	}

	return s.issueGrantToken(a.ID, a.Roles, c, req)
}

// clientCredentialsGrant issues a token for the client itself, under a
// synthetic principal so it can never collide with an account id.
func (s *Service) clientCredentialsGrant(_ context.Context, c *client.Client, req *models.OAuthTokenRequest) (*models.OAuthTokenResponse, error) {
	if !c.AllowsGrant(client.GrantClientCredentials) {
		s.observeGrant(req.GrantType, "rejected", c.ClientID)
		return nil, dErrors.New(dErrors.CodeForbidden, "grant type not allowed for this client")
	}
	return s.issueGrantToken(ClientSubjectPrefix+c.ClientID, []string{"client"}, c, req)
}

func (s *Service) issueGrantToken(subjectID string, roles []string, c *client.Client, req *models.OAuthTokenRequest) (*models.OAuthTokenResponse, error) {
	extra := token.Extra{"azp": c.ClientID}
	if req.Scope != "" {
		extra["scope"] = req.Scope
	}

	accessToken, err := s.tokens.IssueAccessToken(subjectID, roles, "", extra)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(subjectID, "")
	if err != nil {
		return nil, err
	}
	accessTTL, _, err := s.tokens.TTLs("")
	if err != nil {
		return nil, err
	}

	s.observeGrant(req.GrantType, "issued", c.ClientID)
	s.emit(audit.Event{Type: audit.EventGrantIssued, Subject: subjectID, Detail: req.GrantType})

	return &models.OAuthTokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTTL / time.Second),
		Scope:        req.Scope,
		RefreshToken: refreshToken,
	}, nil
}

func (s *Service) observeGrant(grantType, result, clientID string) {
	if s.metrics != nil {
		s.metrics.IncGrants(grantType, result)
	}
	if result == "rejected" {
		s.emit(audit.Event{Type: audit.EventGrantRejected, Subject: clientID, Detail: grantType})
	}
}
