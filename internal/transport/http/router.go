// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services; transport concerns stay here.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"realmgate/internal/guard"
	"realmgate/internal/realm"
	"realmgate/pkg/platform/httputil"
)

// Deps carries everything the router mounts.
type Deps struct {
	Auth        AuthService
	Accounts    AccountService
	Clients     ClientService
	Realms      RealmAdmin
	Verifier    guard.TokenVerifier
	Revocations guard.RevocationChecker
	Health      HealthChecker
}

// NewRouter wires all endpoints. Administrative surfaces sit behind the
// bearer guard plus the admin role.
func NewRouter(deps Deps, opts ...Option) http.Handler {
	h := newHandler(deps, opts...)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestContext)
	r.Use(chimw.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/validate", h.handleValidate)
		r.Post("/logout", h.handleLogout)
	})

	r.Post("/oauth/token", h.handleOAuthToken)

	r.Post("/accounts", h.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuth(deps.Verifier, deps.Revocations, h.logger))

		r.Get("/accounts/me", h.handleCurrentAccount)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireRole("admin"))

			r.Get("/accounts/{id}", h.handleGetAccount)
			r.Put("/accounts/{id}/roles", h.handleUpdateRoles)

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.handleListClients)
				r.Post("/", h.handleCreateClient)
				r.Get("/{clientID}", h.handleGetClient)
				r.Patch("/{clientID}", h.handleUpdateClient)
				r.Delete("/{clientID}", h.handleDeleteClient)
				r.Post("/{clientID}/secret", h.handleRegenerateClientSecret)
			})

			r.Route("/realms", func(r chi.Router) {
				r.Get("/", h.handleListRealms)
				r.Get("/{name}", h.handleGetRealm)
				r.Put("/{name}", h.handleUpsertRealm)
				r.Patch("/{name}", h.handlePatchRealm)
				r.Delete("/{name}", h.handleDeleteRealm)
			})
		})
	})

	return r
}

// RealmAdmin is the realm registry surface exposed over HTTP. Satisfied by
// *realm.Registry.
type RealmAdmin interface {
	Get(name string) (realm.Realm, error)
	Add(name string, r realm.Realm) error
	Update(name string, patch realm.Patch) (realm.Realm, error)
	Delete(name string) error
	List() []realm.Realm
}

// HealthChecker reports backend health; nil checks are skipped.
type HealthChecker func(r *http.Request) error

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health(r); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
