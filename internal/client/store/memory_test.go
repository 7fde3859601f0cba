package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"realmgate/internal/client"
	"realmgate/pkg/platform/sentinel"
)

type ClientStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestClientStoreSuite(t *testing.T) {
	suite.Run(t, new(ClientStoreSuite))
}

func (s *ClientStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *ClientStoreSuite) newClient(clientID string, grants ...client.GrantType) *client.Client {
	c, err := client.New(uuid.NewString(), clientID, "secret-"+clientID, "Test Client", "", "admin-1", nil, grants, []string{"read"}, time.Now())
	s.Require().NoError(err)
	return c
}

func (s *ClientStoreSuite) TestCredentialLookup() {
	c := s.newClient("client-1", client.GrantClientCredentials)
	s.Require().NoError(s.store.Create(s.ctx, c))

	s.Run("valid credentials resolve the client", func() {
		found, err := s.store.FindByClientCredentials(s.ctx, "client-1", "secret-client-1")
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)
	})

	s.Run("wrong secret looks like not found", func() {
		_, err := s.store.FindByClientCredentials(s.ctx, "client-1", "wrong")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown client looks identical", func() {
		_, err := s.store.FindByClientCredentials(s.ctx, "ghost", "secret-client-1")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("inactive client looks identical", func() {
		inactive := s.newClient("client-2", client.GrantClientCredentials)
		inactive.IsActive = false
		s.Require().NoError(s.store.Create(s.ctx, inactive))

		_, err := s.store.FindByClientCredentials(s.ctx, "client-2", "secret-client-2")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ClientStoreSuite) TestCRUD() {
	s.Run("duplicate client_id is a conflict", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newClient("dup")))
		err := s.store.Create(s.ctx, s.newClient("dup"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("update persists changes", func() {
		c := s.newClient("upd", client.GrantPassword)
		s.Require().NoError(s.store.Create(s.ctx, c))

		c.IsActive = false
		s.Require().NoError(s.store.Update(s.ctx, c))

		found, err := s.store.FindByClientID(s.ctx, "upd")
		s.Require().NoError(err)
		s.False(found.IsActive)
	})

	s.Run("delete removes the client", func() {
		c := s.newClient("del")
		s.Require().NoError(s.store.Create(s.ctx, c))
		s.Require().NoError(s.store.Delete(s.ctx, "del"))

		_, err := s.store.FindByClientID(s.ctx, "del")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Delete(s.ctx, "del"), sentinel.ErrNotFound)
	})

	s.Run("list is sorted by client_id", func() {
		store := NewInMemory()
		s.Require().NoError(store.Create(s.ctx, s.newClient("b-client")))
		s.Require().NoError(store.Create(s.ctx, s.newClient("a-client")))

		clients, err := store.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(clients, 2)
		s.Equal("a-client", clients[0].ClientID)
	})
}
