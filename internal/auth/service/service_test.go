package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"realmgate/internal/account"
	accountstore "realmgate/internal/account/store"
	"realmgate/internal/audit"
	"realmgate/internal/client"
	clientstore "realmgate/internal/client/store"
	"realmgate/internal/realm"
	"realmgate/internal/token"
	"realmgate/pkg/secrets"
	"realmgate/pkg/testutil"
)

// fixture wires a Service against in-memory stores and a real token service
// signing with throwaway RSA keys.
type fixture struct {
	ctx      context.Context
	accounts *accountstore.InMemory
	clients  *clientstore.InMemory
	registry *realm.Registry
	tokens   *token.Service
	hasher   *secrets.Hasher
	trail    *auditRecorder
	revoked  *fakeRevocations
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	privatePath, publicPath := testutil.WriteRSAKeyPair(t)
	registry := realm.NewRegistry(realm.Realm{
		Name:            realm.DefaultName,
		Issuer:          "https://auth.test/realms/default",
		Audience:        realm.DefaultName,
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "7d",
		PrivateKeyPath:  privatePath,
		PublicKeyPath:   publicPath,
	})

	f := &fixture{
		ctx:      context.Background(),
		accounts: accountstore.NewInMemory(),
		clients:  clientstore.NewInMemory(),
		registry: registry,
		tokens:   token.NewService(registry, ""),
		hasher:   secrets.NewHasher(bcrypt.MinCost),
		trail:    &auditRecorder{},
		revoked:  newFakeRevocations(),
	}
	f.svc = NewService(f.accounts, f.clients, f.tokens, f.hasher,
		WithAuditPublisher(f.trail),
		WithRevocations(f.revoked),
	)
	return f
}

// staleTokens returns a token service over the same keys whose clock is
// shifted into the past, for minting already-expired tokens.
func (f *fixture) staleTokens(shift time.Duration) *token.Service {
	return token.NewService(f.registry, "", token.WithClock(func() time.Time {
		return time.Now().Add(shift)
	}))
}

func (f *fixture) mustAccount(t *testing.T, email, phone, password string, roles ...string) *account.Account {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	a, err := account.New(uuid.NewString(), email, phone, hash, roles, time.Now())
	if err != nil {
		t.Fatalf("build account: %v", err)
	}
	if err := f.accounts.Create(f.ctx, a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func (f *fixture) mustClient(t *testing.T, clientID, secret string, grants ...client.GrantType) *client.Client {
	t.Helper()
	c, err := client.New(uuid.NewString(), clientID, secret, "Test Client", "", "admin-1", nil, grants, nil, time.Now())
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	if err := f.clients.Create(f.ctx, c); err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

// auditRecorder captures emitted events synchronously.
type auditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *auditRecorder) Emit(event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *auditRecorder) types() []audit.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *auditRecorder) has(t audit.EventType) bool {
	for _, got := range r.types() {
		if got == t {
			return true
		}
	}
	return false
}

type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: make(map[string]bool)}
}

func (f *fakeRevocations) Revoke(_ context.Context, jti string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}
