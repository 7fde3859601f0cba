// Package service implements the authentication flows: login, token
// refresh, token validation, OAuth 2.0 grants, and account registration.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"realmgate/internal/account"
	"realmgate/internal/audit"
	"realmgate/internal/auth/models"
	"realmgate/internal/client"
	"realmgate/internal/token"
	dErrors "realmgate/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mocks.go -package=mocks

// AccountDirectory is the account persistence surface the flows need.
// Satisfied by the account store implementations.
type AccountDirectory interface {
	Create(ctx context.Context, a *account.Account) error
	Update(ctx context.Context, a *account.Account) error
	FindByID(ctx context.Context, id string) (*account.Account, error)
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	FindByPhone(ctx context.Context, phone string) (*account.Account, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*account.Account, error)
	SetRefreshToken(ctx context.Context, accountID, refreshToken string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, accountID string) error
}

// ClientDirectory resolves OAuth clients by credentials.
type ClientDirectory interface {
	FindByClientCredentials(ctx context.Context, clientID, clientSecret string) (*client.Client, error)
}

// TokenIssuer signs and verifies tokens. Satisfied by *token.Service.
type TokenIssuer interface {
	IssueAccessToken(subjectID string, roles []string, realmName string, extra token.Extra) (string, error)
	IssueRefreshToken(subjectID string, realmName string) (string, error)
	Verify(tokenString string) (*token.Claims, error)
	TTLs(realmName string) (access, refresh time.Duration, err error)
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Revocations tracks revoked token IDs until their natural expiry.
type Revocations interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuditPublisher records security-relevant events. Satisfied by
// *audit.Publisher.
type AuditPublisher interface {
	Emit(event audit.Event)
}

// Metrics is the instrumentation surface the flows report into.
type Metrics interface {
	IncLogins(result string)
	IncTokenRefreshes(result string)
	IncGrants(grantType, result string)
}

// Service wires the authentication flows together. Stores, token issuance,
// and hashing are injected so each flow stays testable in isolation.
type Service struct {
	accounts    AccountDirectory
	clients     ClientDirectory
	tokens      TokenIssuer
	hasher      Hasher
	revocations Revocations
	audit       AuditPublisher
	metrics     Metrics
	logger      *slog.Logger
	clock       func() time.Time
	newID       func() string
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithRevocations enables revocation checks during validation and
// revocation writes on logout.
func WithRevocations(r Revocations) Option {
	return func(s *Service) { s.revocations = r }
}

// WithClock sets the time source, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService constructs the authentication service.
func NewService(accounts AccountDirectory, clients ClientDirectory, tokens TokenIssuer, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		clients:  clients,
		tokens:   tokens,
		hasher:   hasher,
		logger:   slog.Default(),
		clock:    time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// issuePair signs an access/refresh token pair for the account in the given
// realm and persists the refresh token, replacing any previous one. The
// single-session invariant lives here: whatever refresh token the account
// held before is gone once this returns.
func (s *Service) issuePair(ctx context.Context, a *account.Account, realmName string) (*models.TokenBundle, error) {
	extra := token.Extra{}
	if a.Email != "" {
		extra["preferred_username"] = a.Email
		extra["email_verified"] = a.EmailVerified
	}

	accessToken, err := s.tokens.IssueAccessToken(a.ID, a.Roles, realmName, extra)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(a.ID, realmName)
	if err != nil {
		return nil, err
	}
	accessTTL, refreshTTL, err := s.tokens.TTLs(realmName)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	accessExpiresAt := now.Add(accessTTL)
	refreshExpiresAt := now.Add(refreshTTL)

	if err := s.accounts.SetRefreshToken(ctx, a.ID, refreshToken, refreshExpiresAt); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist refresh token")
	}

	return &models.TokenBundle{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(accessTTL / time.Second),
		RefreshExpiresIn:      int64(refreshTTL / time.Second),
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshTokenExpiresAt: refreshExpiresAt,
		Account:               a.Public(),
	}, nil
}

func (s *Service) emit(event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(event)
	}
}

func errInvalidCredentials() error {
	// One message for absent account and wrong password, so responses
	// cannot be used to probe which identifiers exist.
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}
