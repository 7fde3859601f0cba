package httptransport

import (
	"context"
	"log/slog"

	"realmgate/internal/account"
	"realmgate/internal/auth/models"
	"realmgate/internal/client"
	clientservice "realmgate/internal/client/service"
)

// AuthService is the authentication surface the transport calls into.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.TokenBundle, error)
	Refresh(ctx context.Context, req *models.RefreshRequest) (*models.TokenBundle, error)
	Validate(ctx context.Context, tokenString string) models.ValidateResult
	Logout(ctx context.Context, accessToken string) error
	OAuthToken(ctx context.Context, req *models.OAuthTokenRequest) (*models.OAuthTokenResponse, error)
}

// AccountService is the account management surface.
type AccountService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*account.View, error)
	GetAccount(ctx context.Context, accountID string) (*account.View, error)
	UpdateRoles(ctx context.Context, accountID string, roles []string) (*account.View, error)
}

// ClientService is the OAuth client administration surface.
type ClientService interface {
	Create(ctx context.Context, req clientservice.CreateRequest) (*clientservice.CreateResult, error)
	Get(ctx context.Context, clientID string) (*client.Client, error)
	List(ctx context.Context) ([]client.Client, error)
	Update(ctx context.Context, clientID string, patch client.Patch) (*client.Client, error)
	Delete(ctx context.Context, clientID string) error
	RegenerateSecret(ctx context.Context, clientID string) (*clientservice.CreateResult, error)
}

type handler struct {
	deps   Deps
	logger *slog.Logger
}

// Option configures the transport handler.
type Option func(*handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *handler) { h.logger = logger }
}

func newHandler(deps Deps, opts ...Option) *handler {
	h := &handler{deps: deps, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
