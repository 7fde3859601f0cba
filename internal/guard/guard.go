// Package guard protects HTTP routes with bearer-token authentication and
// role checks.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"realmgate/internal/token"
	dErrors "realmgate/pkg/domain-errors"
	"realmgate/pkg/platform/httputil"
	"realmgate/pkg/requestcontext"
)

// TokenVerifier validates access tokens. Satisfied by *token.Service.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Principal is the authenticated caller, derived from verified claims.
type Principal struct {
	SubjectID string
	Roles     []string
	ClientID  string // azp claim, set when a client obtained the token
	JTI       string
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type contextKeyPrincipal struct{}

// FromContext returns the authenticated principal, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal{}).(Principal)
	return p, ok
}

// RequireAuth verifies the bearer token, consults the revocation list, and
// stores the principal on the request context. revocations may be nil.
func RequireAuth(verifier TokenVerifier, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			raw, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access, missing bearer token", "request_id", requestID)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, token rejected",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}
			if claims.IsRefresh() {
				logger.WarnContext(ctx, "unauthorized access, refresh token presented", "request_id", requestID)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
				return
			}

			if revocations != nil && claims.ID != "" {
				revoked, err := revocations.IsRevoked(ctx, claims.ID)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"request_id", requestID,
						"jti", claims.ID,
						"error", err,
					)
					httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access, token revoked",
						"request_id", requestID,
						"jti", claims.ID,
					)
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked"))
					return
				}
			}

			principal := Principal{
				SubjectID: claims.Subject,
				Roles:     claims.Roles(),
				ClientID:  claims.AuthorizedParty,
				JTI:       claims.ID,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyPrincipal{}, principal)))
		})
	}
}

// RequireRole allows only principals carrying the given role. Mount inside a
// RequireAuth group.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !p.HasRole(role) {
				httputil.WriteError(w, dErrors.Newf(dErrors.CodeForbidden, "role %q required", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
