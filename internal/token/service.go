// Package token signs and verifies realm-bound access and refresh tokens.
// Signing is asymmetric (RS256) with per-realm PEM key material; when key
// material cannot be loaded the service falls back to a shared-secret HS256
// mode, reported as a degraded-security condition rather than a hard
// failure so the service stays available during key provisioning.
package token

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"realmgate/internal/realm"
	dErrors "realmgate/pkg/domain-errors"
)

// keyID is the fixed key identifier carried in every token header. Key
// rotation (and with it multiple kids) is out of scope.
const keyID = "rsa-key-1"

// RealmResolver resolves realm configuration at issuance time. Satisfied by
// *realm.Registry.
type RealmResolver interface {
	Get(name string) (realm.Realm, error)
}

// Metrics is the subset of instrumentation the token service reports into.
type Metrics interface {
	IncTokensIssued(kind string)
	SetDegradedSigning(degraded bool)
}

type signer struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	degraded  bool
}

// Service issues and verifies tokens for realms resolved through the
// registry. Key material is loaded lazily per realm and cached for the
// process lifetime; there is no reload path.
type Service struct {
	realms         RealmResolver
	fallbackSecret []byte
	logger         *slog.Logger
	metrics        Metrics
	clock          func() time.Time

	mu      sync.RWMutex
	signers map[string]*signer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the time source, for deterministic expiry in tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService constructs a token service. fallbackSecret is the HS256 secret
// used only when a realm's key files cannot be read.
func NewService(realms RealmResolver, fallbackSecret string, opts ...Option) *Service {
	s := &Service{
		realms:         realms,
		fallbackSecret: []byte(fallbackSecret),
		logger:         slog.Default(),
		clock:          time.Now,
		signers:        make(map[string]*signer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueAccessToken builds and signs an access token for the subject in the
// named realm. Roles appear both realm-scoped and mirrored under the
// realm's audience in resource_access. extra may extend the allow-listed
// optional claims; nil is fine.
func (s *Service) IssueAccessToken(subjectID string, roles []string, realmName string, extra Extra) (string, error) {
	r, err := s.realms.Get(realmName)
	if err != nil {
		return "", err
	}
	ttl, err := ParseTTL(r.AccessTokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "access token ttl misconfigured for realm "+r.Name)
	}

	now := s.clock()
	claims := &Claims{
		TokenUse:    "Bearer",
		RealmAccess: &RoleSet{Roles: roles},
		ResourceAccess: map[string]RoleSet{
			r.Audience: {Roles: roles},
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    r.Issuer,
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{r.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	if err := extra.applyTo(claims); err != nil {
		return "", err
	}

	signed, err := s.sign(r, claims)
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.IncTokensIssued(KindAccess)
	}
	return signed, nil
}

// IssueRefreshToken builds and signs a refresh token. Refresh tokens carry
// no role claims; roles are re-derived from the account at refresh time
// rather than trusted from an old token.
func (s *Service) IssueRefreshToken(subjectID string, realmName string) (string, error) {
	r, err := s.realms.Get(realmName)
	if err != nil {
		return "", err
	}
	ttl, err := ParseTTL(r.RefreshTokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "refresh token ttl misconfigured for realm "+r.Name)
	}

	now := s.clock()
	claims := &Claims{
		Kind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    r.Issuer,
			Subject:   subjectID,
			Audience:  jwt.ClaimStrings{r.Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := s.sign(r, claims)
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.IncTokensIssued(KindRefresh)
	}
	return signed, nil
}

// Verify checks the token's signature and validity window against the
// default realm's verification key. Callers can distinguish a structurally
// invalid token (CodeUnauthorized) from a well-formed but expired one
// (CodeExpired); the refresh flow depends on that distinction.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	r, err := s.realms.Get(realm.DefaultName)
	if err != nil {
		return nil, err
	}
	sg, err := s.signerFor(r)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != sg.method.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return sg.verifyKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeExpired, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return claims, nil
}

// ExpiryOf returns the expiry of a verifiable token; verification failures
// propagate.
func (s *Service) ExpiryOf(tokenString string) (time.Time, error) {
	claims, err := s.Verify(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

// TTLs returns the configured access and refresh token lifetimes for a
// realm. A malformed TTL string surfaces here the same way it does at
// issuance.
func (s *Service) TTLs(realmName string) (access, refresh time.Duration, err error) {
	r, err := s.realms.Get(realmName)
	if err != nil {
		return 0, 0, err
	}
	access, err = ParseTTL(r.AccessTokenTTL)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "access token ttl misconfigured for realm "+r.Name)
	}
	refresh, err = ParseTTL(r.RefreshTokenTTL)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "refresh token ttl misconfigured for realm "+r.Name)
	}
	return access, refresh, nil
}

// Degraded reports whether any realm is currently signing with the
// shared-secret fallback instead of its asymmetric keys.
func (s *Service) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sg := range s.signers {
		if sg.degraded {
			return true
		}
	}
	return false
}

func (s *Service) sign(r realm.Realm, claims *Claims) (string, error) {
	sg, err := s.signerFor(r)
	if err != nil {
		return "", err
	}
	t := jwt.NewWithClaims(sg.method, claims)
	t.Header["kid"] = keyID
	signed, err := t.SignedString(sg.signKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// signerFor loads and caches the signer for a realm. Keys are read once;
// a load failure pins the realm to the degraded HS256 fallback for the
// process lifetime.
func (s *Service) signerFor(r realm.Realm) (*signer, error) {
	s.mu.RLock()
	sg, ok := s.signers[r.Name]
	s.mu.RUnlock()
	if ok {
		return sg, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sg, ok := s.signers[r.Name]; ok {
		return sg, nil
	}

	sg, loadErr := loadRSASigner(r)
	if loadErr != nil {
		if len(s.fallbackSecret) == 0 {
			return nil, dErrors.Wrap(loadErr, dErrors.CodeInternal, "signing keys unavailable and no fallback secret configured")
		}
		s.logger.Warn("signing keys unavailable, falling back to shared-secret signing",
			"realm", r.Name,
			"error", loadErr,
		)
		sg = &signer{
			method:    jwt.SigningMethodHS256,
			signKey:   s.fallbackSecret,
			verifyKey: s.fallbackSecret,
			degraded:  true,
		}
		if s.metrics != nil {
			s.metrics.SetDegradedSigning(true)
		}
	}
	s.signers[r.Name] = sg
	return sg, nil
}

func loadRSASigner(r realm.Realm) (*signer, error) {
	privPEM, err := os.ReadFile(r.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	pubPEM, err := os.ReadFile(r.PublicKeyPath)
	if err != nil {
		return nil, err
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, err
	}
	return &signer{
		method:    jwt.SigningMethodRS256,
		signKey:   priv,
		verifyKey: pub,
	}, nil
}
