package token

import (
	"github.com/golang-jwt/jwt/v5"

	dErrors "realmgate/pkg/domain-errors"
)

// Token kinds carried in the "type" claim. Access tokens instead carry
// typ: "Bearer" and omit "type".
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// RoleSet wraps a role list for the realm_access / resource_access claims.
type RoleSet struct {
	Roles []string `json:"roles"`
}

// Claims is the fixed claim structure signed into every token. Optional
// fields are extended through Extra, never by merging arbitrary maps, so
// security-critical claims cannot be shadowed.
type Claims struct {
	TokenUse          string             `json:"typ,omitempty"`  // "Bearer" on access tokens
	Kind              string             `json:"type,omitempty"` // "refresh" on refresh tokens
	RealmAccess       *RoleSet           `json:"realm_access,omitempty"`
	ResourceAccess    map[string]RoleSet `json:"resource_access,omitempty"`
	Scope             string             `json:"scope,omitempty"`
	AuthorizedParty   string             `json:"azp,omitempty"`
	ACR               string             `json:"acr,omitempty"`
	PreferredUsername string             `json:"preferred_username,omitempty"`
	EmailVerified     bool               `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// Roles returns the realm-scoped roles, never nil.
func (c *Claims) Roles() []string {
	if c.RealmAccess == nil {
		return nil
	}
	return c.RealmAccess.Roles
}

// IsRefresh reports whether the token was issued as a refresh token.
func (c *Claims) IsRefresh() bool {
	return c.Kind == KindRefresh
}

// Extra is the allow-listed extension map for access-token issuance.
// Registered claims (sub, exp, iss, aud, iat, nbf, jti) and the role claims
// are not extendable; attempting to set an unknown key fails issuance.
type Extra map[string]any

var allowedExtraKeys = map[string]struct{}{
	"scope":              {},
	"azp":                {},
	"acr":                {},
	"preferred_username": {},
	"email_verified":     {},
}

func (e Extra) applyTo(c *Claims) error {
	for key, value := range e {
		if _, ok := allowedExtraKeys[key]; !ok {
			return dErrors.Newf(dErrors.CodeValidation, "claim %q is not extendable", key)
		}
		switch key {
		case "scope":
			s, ok := value.(string)
			if !ok {
				return dErrors.New(dErrors.CodeValidation, "scope claim must be a string")
			}
			c.Scope = s
		case "azp":
			s, ok := value.(string)
			if !ok {
				return dErrors.New(dErrors.CodeValidation, "azp claim must be a string")
			}
			c.AuthorizedParty = s
		case "acr":
			s, ok := value.(string)
			if !ok {
				return dErrors.New(dErrors.CodeValidation, "acr claim must be a string")
			}
			c.ACR = s
		case "preferred_username":
			s, ok := value.(string)
			if !ok {
				return dErrors.New(dErrors.CodeValidation, "preferred_username claim must be a string")
			}
			c.PreferredUsername = s
		case "email_verified":
			b, ok := value.(bool)
			if !ok {
				return dErrors.New(dErrors.CodeValidation, "email_verified claim must be a bool")
			}
			c.EmailVerified = b
		}
	}
	return nil
}
