package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"realmgate/internal/audit"
	"realmgate/internal/auth/models"
	dErrors "realmgate/pkg/domain-errors"
)

type RefreshSuite struct {
	suite.Suite
	f *fixture
}

func TestRefreshSuite(t *testing.T) {
	suite.Run(t, new(RefreshSuite))
}

func (s *RefreshSuite) SetupTest() {
	s.f = newFixture(s.T())
}

func (s *RefreshSuite) login(email, password string) *models.TokenBundle {
	bundle, err := s.f.svc.Login(s.f.ctx, &models.LoginRequest{Email: email, Password: password})
	s.Require().NoError(err)
	return bundle
}

func (s *RefreshSuite) TestRotation() {
	a := s.f.mustAccount(s.T(), "alice@example.com", "", "s3cretpass")
	first := s.login("alice@example.com", "s3cretpass")

	rotated, err := s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{RefreshToken: first.RefreshToken})
	s.Require().NoError(err)

	s.NotEmpty(rotated.AccessToken)
	s.NotEqual(first.RefreshToken, rotated.RefreshToken)
	s.Equal(a.ID, rotated.Account.ID)
	s.True(s.f.trail.has(audit.EventTokenRefreshed))

	s.Run("old refresh token is spent", func() {
		_, err := s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{RefreshToken: first.RefreshToken})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rotated token still works", func() {
		_, err := s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{RefreshToken: rotated.RefreshToken})
		s.Require().NoError(err)
	})
}

func (s *RefreshSuite) TestUnknownToken() {
	_, err := s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{RefreshToken: "never-issued"})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *RefreshSuite) TestMissingToken() {
	_, err := s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *RefreshSuite) TestExpiredTokenIsRevoked() {
	a := s.f.mustAccount(s.T(), "alice@example.com", "", "s3cretpass")

	stale := s.f.staleTokens(-8 * 24 * time.Hour)
	expired, err := stale.IssueRefreshToken(a.ID, "")
	s.Require().NoError(err)
	s.Require().NoError(s.f.accounts.SetRefreshToken(s.f.ctx, a.ID, expired, time.Now().Add(-24*time.Hour)))

	_, err = s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{RefreshToken: expired})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeExpired))

	found, err := s.f.accounts.FindByID(s.f.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(found.RefreshToken, "stored token must be revoked on failed rotation")
	s.True(s.f.trail.has(audit.EventRefreshRevoked))
}

func (s *RefreshSuite) TestAccessTokenPresentedAsRefresh() {
	a := s.f.mustAccount(s.T(), "alice@example.com", "", "s3cretpass")

	accessToken, err := s.f.tokens.IssueAccessToken(a.ID, a.Roles, "", nil)
	s.Require().NoError(err)
	s.Require().NoError(s.f.accounts.SetRefreshToken(s.f.ctx, a.ID, accessToken, time.Now().Add(time.Hour)))

	_, err = s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{RefreshToken: accessToken})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	found, err := s.f.accounts.FindByID(s.f.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(found.RefreshToken)
}

func (s *RefreshSuite) TestSubjectMismatchIsRevoked() {
	a := s.f.mustAccount(s.T(), "alice@example.com", "", "s3cretpass")

	foreign, err := s.f.tokens.IssueRefreshToken("some-other-subject", "")
	s.Require().NoError(err)
	s.Require().NoError(s.f.accounts.SetRefreshToken(s.f.ctx, a.ID, foreign, time.Now().Add(time.Hour)))

	_, err = s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{RefreshToken: foreign})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	found, err := s.f.accounts.FindByID(s.f.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(found.RefreshToken)
}

func (s *RefreshSuite) TestRefreshPicksUpRoleChanges() {
	a := s.f.mustAccount(s.T(), "alice@example.com", "", "s3cretpass")
	first := s.login("alice@example.com", "s3cretpass")

	_, err := s.f.svc.UpdateRoles(s.f.ctx, a.ID, []string{"user", "admin"})
	s.Require().NoError(err)

	rotated, err := s.f.svc.Refresh(s.f.ctx, &models.RefreshRequest{RefreshToken: first.RefreshToken})
	s.Require().NoError(err)

	claims, err := s.f.tokens.Verify(rotated.AccessToken)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"user", "admin"}, claims.Roles())
}
