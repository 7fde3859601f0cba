// Package service implements administrative management of OAuth client
// registrations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"realmgate/internal/audit"
	"realmgate/internal/client"
	dErrors "realmgate/pkg/domain-errors"
	"realmgate/pkg/platform/sentinel"
	"realmgate/pkg/secrets"
)

// ClientStore is the persistence surface for client registrations.
// Satisfied by the client store implementations.
type ClientStore interface {
	Create(ctx context.Context, c *client.Client) error
	Update(ctx context.Context, c *client.Client) error
	Delete(ctx context.Context, clientID string) error
	FindByClientID(ctx context.Context, clientID string) (*client.Client, error)
	List(ctx context.Context) ([]client.Client, error)
}

// AuditPublisher records client lifecycle events.
type AuditPublisher interface {
	Emit(event audit.Event)
}

// Service manages OAuth client registrations.
type Service struct {
	store     ClientStore
	audit     AuditPublisher
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string
	newSecret func() (string, error)
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.audit = p }
}

// NewService constructs a client management service.
func NewService(store ClientStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		logger:    slog.Default(),
		clock:     time.Now,
		newID:     uuid.NewString,
		newSecret: secrets.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest registers a new OAuth client.
type CreateRequest struct {
	Name         string             `json:"client_name"`
	Description  string             `json:"client_description,omitempty"`
	RedirectURIs []string           `json:"redirect_uris,omitempty"`
	GrantTypes   []client.GrantType `json:"grant_types,omitempty"`
	Scopes       []string           `json:"scopes,omitempty"`
	CreatedBy    string             `json:"-"`
}

// CreateResult carries the new registration plus the plaintext secret. The
// secret is shown exactly once; only its presence in this response makes it
// recoverable.
type CreateResult struct {
	Client       client.Client `json:"client"`
	ClientSecret string        `json:"client_secret"`
}

// Create registers a client with a generated client_id and secret.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "client name is required")
	}

	secret, err := s.newSecret()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate client secret")
	}

	c, err := client.New(s.newID(), s.newID(), secret, req.Name, req.Description, req.CreatedBy,
		req.RedirectURIs, req.GrantTypes, req.Scopes, s.clock())
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "client already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create client")
	}

	s.emit(audit.Event{Type: audit.EventClientCreated, Subject: c.ClientID, Detail: req.CreatedBy})
	return &CreateResult{Client: *c, ClientSecret: secret}, nil
}

// Get returns a client registration.
func (s *Service) Get(ctx context.Context, clientID string) (*client.Client, error) {
	c, err := s.store.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, s.translate(err)
	}
	return c, nil
}

// List returns all registrations sorted by client_id.
func (s *Service) List(ctx context.Context) ([]client.Client, error) {
	clients, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	return clients, nil
}

// Update applies a partial patch to a registration.
func (s *Service) Update(ctx context.Context, clientID string, patch client.Patch) (*client.Client, error) {
	c, err := s.store.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, s.translate(err)
	}
	if err := patch.Apply(c, s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, c); err != nil {
		return nil, s.translate(err)
	}
	return c, nil
}

// Delete removes a registration. Tokens already issued to the client stay
// valid until they expire.
func (s *Service) Delete(ctx context.Context, clientID string) error {
	if err := s.store.Delete(ctx, clientID); err != nil {
		return s.translate(err)
	}
	s.emit(audit.Event{Type: audit.EventClientDeleted, Subject: clientID})
	return nil
}

// RegenerateSecret replaces the client's secret and returns the new
// plaintext once. The old secret stops working immediately.
func (s *Service) RegenerateSecret(ctx context.Context, clientID string) (*CreateResult, error) {
	c, err := s.store.FindByClientID(ctx, clientID)
	if err != nil {
		return nil, s.translate(err)
	}

	secret, err := s.newSecret()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate client secret")
	}
	c.ClientSecret = secret
	c.UpdatedAt = s.clock()

	if err := s.store.Update(ctx, c); err != nil {
		return nil, s.translate(err)
	}
	return &CreateResult{Client: *c, ClientSecret: secret}, nil
}

func (s *Service) translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "client not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "client already registered")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "client store failure")
	}
}

func (s *Service) emit(event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(event)
	}
}
