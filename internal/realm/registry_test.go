package realm

import (
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "realmgate/pkg/domain-errors"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry(Realm{
		Name:            DefaultName,
		Issuer:          "http://localhost:3001",
		Audience:        "users-api",
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "7d",
	})
}

func (s *RegistrySuite) TestGet() {
	s.Run("returns seeded realm", func() {
		realm, err := s.registry.Get(DefaultName)
		s.Require().NoError(err)
		s.Equal("users-api", realm.Audience)
	})

	s.Run("empty name falls back to default", func() {
		realm, err := s.registry.Get("")
		s.Require().NoError(err)
		s.Equal(DefaultName, realm.Name)
	})

	s.Run("unknown realm is not found", func() {
		_, err := s.registry.Get("nope")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistrySuite) TestAddUpdateDelete() {
	s.Run("add then get", func() {
		s.Require().NoError(s.registry.Add("admin", Realm{
			Issuer:          "http://admin.example.com",
			Audience:        "admin-api",
			AccessTokenTTL:  "5m",
			RefreshTokenTTL: "1d",
		}))

		realm, err := s.registry.Get("admin")
		s.Require().NoError(err)
		s.Equal("admin", realm.Name)
		s.Equal("admin-api", realm.Audience)
	})

	s.Run("add without name is rejected", func() {
		err := s.registry.Add("", Realm{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("update patches only provided fields", func() {
		s.Require().NoError(s.registry.Add("admin", Realm{
			Issuer:         "http://admin.example.com",
			Audience:       "admin-api",
			AccessTokenTTL: "5m",
		}))

		ttl := "10m"
		updated, err := s.registry.Update("admin", Patch{AccessTokenTTL: &ttl})
		s.Require().NoError(err)
		s.Equal("10m", updated.AccessTokenTTL)
		s.Equal("admin-api", updated.Audience)
	})

	s.Run("update of missing realm is not found", func() {
		_, err := s.registry.Update("ghost", Patch{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("delete removes realm", func() {
		s.Require().NoError(s.registry.Add("temp", Realm{Audience: "temp-api"}))
		s.Require().NoError(s.registry.Delete("temp"))
		_, err := s.registry.Get("temp")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("default realm cannot be deleted", func() {
		err := s.registry.Delete(DefaultName)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		_, getErr := s.registry.Get(DefaultName)
		s.NoError(getErr)
	})
}

func (s *RegistrySuite) TestList() {
	s.Require().NoError(s.registry.Add("b-realm", Realm{Audience: "b"}))
	s.Require().NoError(s.registry.Add("a-realm", Realm{Audience: "a"}))

	realms := s.registry.List()
	s.Require().Len(realms, 3)
	s.Equal("a-realm", realms[0].Name)
	s.Equal("b-realm", realms[1].Name)
	s.Equal(DefaultName, realms[2].Name)
}
