package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"realmgate/internal/realm"
	"realmgate/internal/revocation"
	"realmgate/internal/token"
	"realmgate/pkg/testutil"
)

type GuardSuite struct {
	suite.Suite
	registry *realm.Registry
	tokens   *token.Service
	revoked  *revocation.InMemory
	router   chi.Router
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	privatePath, publicPath := testutil.WriteRSAKeyPair(s.T())
	s.registry = realm.NewRegistry(realm.Realm{
		Name:            realm.DefaultName,
		Issuer:          "https://auth.test/realms/default",
		Audience:        realm.DefaultName,
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "7d",
		PrivateKeyPath:  privatePath,
		PublicKeyPath:   publicPath,
	})
	s.tokens = token.NewService(s.registry, "")
	s.revoked = revocation.NewInMemory()

	s.router = chi.NewRouter()
	s.router.Group(func(r chi.Router) {
		r.Use(RequireAuth(s.tokens, s.revoked, nil))
		r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			p, _ := FromContext(r.Context())
			_ = json.NewEncoder(w).Encode(p)
		})
		r.Group(func(r chi.Router) {
			r.Use(RequireRole("admin"))
			r.Get("/admin", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})
	})
}

func (s *GuardSuite) request(path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *GuardSuite) TestAuthenticatedRequest() {
	accessToken, err := s.tokens.IssueAccessToken("acct-1", []string{"user"}, "", token.Extra{"azp": "web-app"})
	s.Require().NoError(err)

	w := s.request("/me", accessToken)
	s.Require().Equal(http.StatusOK, w.Code)

	var p Principal
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&p))
	s.Equal("acct-1", p.SubjectID)
	s.Equal([]string{"user"}, p.Roles)
	s.Equal("web-app", p.ClientID)
	s.NotEmpty(p.JTI)
}

func (s *GuardSuite) TestRejections() {
	s.Run("missing header", func() {
		s.Equal(http.StatusUnauthorized, s.request("/me", "").Code)
	})

	s.Run("garbage token", func() {
		s.Equal(http.StatusUnauthorized, s.request("/me", "not.a.token").Code)
	})

	s.Run("expired token", func() {
		stale := token.NewService(s.registry, "", token.WithClock(func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		}))
		expired, err := stale.IssueAccessToken("acct-1", []string{"user"}, "", nil)
		s.Require().NoError(err)
		s.Equal(http.StatusUnauthorized, s.request("/me", expired).Code)
	})

	s.Run("refresh token rejected", func() {
		refreshToken, err := s.tokens.IssueRefreshToken("acct-1", "")
		s.Require().NoError(err)
		s.Equal(http.StatusUnauthorized, s.request("/me", refreshToken).Code)
	})

	s.Run("revoked token", func() {
		accessToken, err := s.tokens.IssueAccessToken("acct-1", []string{"user"}, "", nil)
		s.Require().NoError(err)
		claims, err := s.tokens.Verify(accessToken)
		s.Require().NoError(err)
		s.Require().NoError(s.revoked.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

		s.Equal(http.StatusUnauthorized, s.request("/me", accessToken).Code)
	})
}

func (s *GuardSuite) TestRoleEnforcement() {
	s.Run("admin role passes", func() {
		adminToken, err := s.tokens.IssueAccessToken("acct-admin", []string{"user", "admin"}, "", nil)
		s.Require().NoError(err)
		s.Equal(http.StatusNoContent, s.request("/admin", adminToken).Code)
	})

	s.Run("missing role is forbidden", func() {
		userToken, err := s.tokens.IssueAccessToken("acct-1", []string{"user"}, "", nil)
		s.Require().NoError(err)
		s.Equal(http.StatusForbidden, s.request("/admin", userToken).Code)
	})
}
