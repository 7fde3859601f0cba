package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"realmgate/internal/audit"
	"realmgate/internal/auth/models"
	"realmgate/internal/client"
	dErrors "realmgate/pkg/domain-errors"
)

type OAuthTokenSuite struct {
	suite.Suite
	f *fixture
}

func TestOAuthTokenSuite(t *testing.T) {
	suite.Run(t, new(OAuthTokenSuite))
}

func (s *OAuthTokenSuite) SetupTest() {
	s.f = newFixture(s.T())
}

func (s *OAuthTokenSuite) TestClientCredentialsGrant() {
	s.f.mustClient(s.T(), "svc-billing", "top-secret", client.GrantClientCredentials)

	resp, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
		GrantType:    "client_credentials",
		ClientID:     "svc-billing",
		ClientSecret: "top-secret",
		Scope:        "invoices:read",
	})
	s.Require().NoError(err)

	s.Equal("Bearer", resp.TokenType)
	s.EqualValues(15*60, resp.ExpiresIn)
	s.Equal("invoices:read", resp.Scope)
	s.Require().NotEmpty(resp.RefreshToken)

	claims, err := s.f.tokens.Verify(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(ClientSubjectPrefix+"svc-billing", claims.Subject)
	s.Equal([]string{"client"}, claims.Roles())
	s.Equal("svc-billing", claims.AuthorizedParty)
	s.Equal("invoices:read", claims.Scope)

	refreshClaims, err := s.f.tokens.Verify(resp.RefreshToken)
	s.Require().NoError(err)
	s.True(refreshClaims.IsRefresh())
	s.Equal(ClientSubjectPrefix+"svc-billing", refreshClaims.Subject)

	s.True(s.f.trail.has(audit.EventGrantIssued))
}

func (s *OAuthTokenSuite) TestPasswordGrant() {
	a := s.f.mustAccount(s.T(), "alice@example.com", "", "s3cretpass", "user", "editor")
	s.f.mustClient(s.T(), "web-app", "web-secret", client.GrantPassword)

	resp, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
		GrantType:    "password",
		ClientID:     "web-app",
		ClientSecret: "web-secret",
		Username:     "alice@example.com",
		Password:     "s3cretpass",
	})
	s.Require().NoError(err)

	claims, err := s.f.tokens.Verify(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(a.ID, claims.Subject)
	s.ElementsMatch([]string{"user", "editor"}, claims.Roles())
	s.Equal("web-app", claims.AuthorizedParty)

	s.Require().NotEmpty(resp.RefreshToken)
	refreshClaims, err := s.f.tokens.Verify(resp.RefreshToken)
	s.Require().NoError(err)
	s.True(refreshClaims.IsRefresh())
	s.Equal(a.ID, refreshClaims.Subject)
}

func (s *OAuthTokenSuite) TestClientAuthentication() {
	s.f.mustClient(s.T(), "svc-billing", "top-secret", client.GrantClientCredentials)

	s.Run("wrong secret", func() {
		_, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "client_credentials", ClientID: "svc-billing", ClientSecret: "wrong",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown client looks identical", func() {
		_, errUnknown := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "client_credentials", ClientID: "ghost", ClientSecret: "top-secret",
		})
		_, errWrongSecret := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "client_credentials", ClientID: "svc-billing", ClientSecret: "wrong",
		})
		s.Require().Error(errUnknown)
		s.Require().Error(errWrongSecret)
		s.Equal(errWrongSecret.Error(), errUnknown.Error())
	})

	s.Run("missing credentials look identical too", func() {
		_, errMissing := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "client_credentials", ClientID: "svc-billing",
		})
		_, errWrongSecret := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "client_credentials", ClientID: "svc-billing", ClientSecret: "wrong",
		})
		s.Require().True(dErrors.HasCode(errMissing, dErrors.CodeUnauthorized))
		s.Require().Error(errWrongSecret)
		s.Equal(errWrongSecret.Error(), errMissing.Error())
	})
}

func (s *OAuthTokenSuite) TestGrantRestrictions() {
	s.f.mustAccount(s.T(), "alice@example.com", "", "s3cretpass")
	s.f.mustClient(s.T(), "cc-only", "cc-secret", client.GrantClientCredentials)

	s.Run("grant not allowed for client", func() {
		_, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "password", ClientID: "cc-only", ClientSecret: "cc-secret",
			Username: "alice@example.com", Password: "s3cretpass",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.True(s.f.trail.has(audit.EventGrantRejected))
	})

	s.Run("missing resource owner fields win over grant policy", func() {
		_, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "password", ClientID: "cc-only", ClientSecret: "cc-secret",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unsupported grant type", func() {
		_, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "authorization_code", ClientID: "cc-only", ClientSecret: "cc-secret",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown grant type", func() {
		_, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "carrier_pigeon", ClientID: "cc-only", ClientSecret: "cc-secret",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *OAuthTokenSuite) TestPasswordGrantRejections() {
	s.f.mustAccount(s.T(), "alice@example.com", "", "s3cretpass")
	s.f.mustClient(s.T(), "web-app", "web-secret", client.GrantPassword)

	s.Run("missing username", func() {
		_, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "password", ClientID: "web-app", ClientSecret: "web-secret",
			Password: "s3cretpass",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("wrong password", func() {
		_, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "password", ClientID: "web-app", ClientSecret: "web-secret",
			Username: "alice@example.com", Password: "nope12345",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown account", func() {
		_, err := s.f.svc.OAuthToken(s.f.ctx, &models.OAuthTokenRequest{
			GrantType: "password", ClientID: "web-app", ClientSecret: "web-secret",
			Username: "ghost@example.com", Password: "s3cretpass",
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
