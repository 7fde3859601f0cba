package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"realmgate/internal/client"
	"realmgate/internal/client/store"
	dErrors "realmgate/pkg/domain-errors"
)

type ClientServiceSuite struct {
	suite.Suite
	ctx context.Context
	svc *Service
}

func TestClientServiceSuite(t *testing.T) {
	suite.Run(t, new(ClientServiceSuite))
}

func (s *ClientServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.svc = NewService(store.NewInMemory())
}

func (s *ClientServiceSuite) create(name string, grants ...client.GrantType) *CreateResult {
	result, err := s.svc.Create(s.ctx, CreateRequest{
		Name:       name,
		GrantTypes: grants,
		CreatedBy:  "admin-1",
	})
	s.Require().NoError(err)
	return result
}

func (s *ClientServiceSuite) TestCreate() {
	result := s.create("Billing Service", client.GrantClientCredentials)

	s.NotEmpty(result.Client.ClientID)
	s.NotEmpty(result.ClientSecret, "plaintext secret is returned exactly once")
	s.True(result.Client.IsActive)
	s.Equal("admin-1", result.Client.CreatedBy)

	s.Run("secret works for credential lookup", func() {
		got, err := s.svc.Get(s.ctx, result.Client.ClientID)
		s.Require().NoError(err)
		s.Equal(result.ClientSecret, got.ClientSecret)
	})

	s.Run("name is required", func() {
		_, err := s.svc.Create(s.ctx, CreateRequest{})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("defaults to client_credentials grant", func() {
		got := s.create("Defaulted")
		s.Equal([]client.GrantType{client.GrantClientCredentials}, got.Client.GrantTypes)
	})
}

func (s *ClientServiceSuite) TestUpdate() {
	created := s.create("Web App", client.GrantPassword)

	inactive := false
	updated, err := s.svc.Update(s.ctx, created.Client.ClientID, client.Patch{IsActive: &inactive})
	s.Require().NoError(err)
	s.False(updated.IsActive)

	s.Run("invalid grant type rejected", func() {
		_, err := s.svc.Update(s.ctx, created.Client.ClientID, client.Patch{
			GrantTypes: []client.GrantType{"carrier_pigeon"},
		})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown client", func() {
		_, err := s.svc.Update(s.ctx, "ghost", client.Patch{})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ClientServiceSuite) TestDelete() {
	created := s.create("Doomed")

	s.Require().NoError(s.svc.Delete(s.ctx, created.Client.ClientID))

	_, err := s.svc.Get(s.ctx, created.Client.ClientID)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.svc.Delete(s.ctx, created.Client.ClientID)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ClientServiceSuite) TestList() {
	s.create("One")
	s.create("Two")

	clients, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Len(clients, 2)
}

func (s *ClientServiceSuite) TestRegenerateSecret() {
	created := s.create("Rotating")

	rotated, err := s.svc.RegenerateSecret(s.ctx, created.Client.ClientID)
	s.Require().NoError(err)
	s.NotEqual(created.ClientSecret, rotated.ClientSecret)

	got, err := s.svc.Get(s.ctx, created.Client.ClientID)
	s.Require().NoError(err)
	s.Equal(rotated.ClientSecret, got.ClientSecret)
}
