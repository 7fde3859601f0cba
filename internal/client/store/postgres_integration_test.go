//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"realmgate/internal/client"
	"realmgate/pkg/platform/sentinel"
	"realmgate/pkg/testutil/containers"
)

const clientsSchema = `
CREATE TABLE IF NOT EXISTS oauth_clients (
    id            TEXT PRIMARY KEY,
    client_id     TEXT UNIQUE NOT NULL,
    client_secret TEXT NOT NULL,
    name          TEXT NOT NULL,
    description   TEXT,
    redirect_uris TEXT[] NOT NULL DEFAULT '{}',
    grant_types   TEXT[] NOT NULL,
    scopes        TEXT[] NOT NULL DEFAULT '{}',
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_by    TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
)`

type PostgresClientSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *Postgres
}

func TestPostgresClientSuite(t *testing.T) {
	suite.Run(t, new(PostgresClientSuite))
}

func (s *PostgresClientSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.MustExec(s.T(), clientsSchema)
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresClientSuite) SetupTest() {
	s.pg.MustExec(s.T(), `TRUNCATE oauth_clients`)
}

func (s *PostgresClientSuite) newClient(clientID string, grants ...client.GrantType) *client.Client {
	c, err := client.New(uuid.NewString(), clientID, "secret-"+clientID, "Test Client", "desc", "admin-1", nil, grants, []string{"read"}, time.Now().UTC())
	s.Require().NoError(err)
	return c
}

func (s *PostgresClientSuite) TestCredentialLookup() {
	c := s.newClient("client-1", client.GrantClientCredentials)
	s.Require().NoError(s.store.Create(s.ctx, c))

	s.Run("valid credentials resolve", func() {
		found, err := s.store.FindByClientCredentials(s.ctx, "client-1", "secret-client-1")
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)
		s.Equal([]client.GrantType{client.GrantClientCredentials}, found.GrantTypes)
	})

	s.Run("wrong secret looks like not found", func() {
		_, err := s.store.FindByClientCredentials(s.ctx, "client-1", "wrong")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("inactive client looks identical", func() {
		inactive := false
		s.Require().NoError(client.Patch{IsActive: &inactive}.Apply(c, time.Now().UTC()))
		s.Require().NoError(s.store.Update(s.ctx, c))

		_, err := s.store.FindByClientCredentials(s.ctx, "client-1", "secret-client-1")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresClientSuite) TestCRUD() {
	c := s.newClient("client-1", client.GrantPassword, client.GrantClientCredentials)
	s.Require().NoError(s.store.Create(s.ctx, c))

	s.Run("duplicate client_id conflicts", func() {
		s.Require().ErrorIs(s.store.Create(s.ctx, s.newClient("client-1")), sentinel.ErrConflict)
	})

	s.Run("list is sorted", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newClient("a-client")))
		clients, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(clients, 2)
		s.Equal("a-client", clients[0].ClientID)
	})

	s.Run("delete removes", func() {
		s.Require().NoError(s.store.Delete(s.ctx, "client-1"))
		_, err := s.store.FindByClientID(s.ctx, "client-1")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.Delete(s.ctx, "client-1"), sentinel.ErrNotFound)
	})
}
