// Package realm holds per-tenant signing configuration. A realm names the
// issuer, audience, token lifetimes, and key material used for every token
// bound to that tenant context.
package realm

// Realm is a named tenant context for token issuance and verification.
type Realm struct {
	Name            string `json:"name"`
	Issuer          string `json:"issuer"`
	Audience        string `json:"audience"`
	AccessTokenTTL  string `json:"access_token_ttl"`
	RefreshTokenTTL string `json:"refresh_token_ttl"`
	PrivateKeyPath  string `json:"private_key_path"`
	PublicKeyPath   string `json:"public_key_path"`
}

// Patch carries a partial realm update. Nil fields are left unchanged.
type Patch struct {
	Issuer          *string `json:"issuer,omitempty"`
	Audience        *string `json:"audience,omitempty"`
	AccessTokenTTL  *string `json:"access_token_ttl,omitempty"`
	RefreshTokenTTL *string `json:"refresh_token_ttl,omitempty"`
	PrivateKeyPath  *string `json:"private_key_path,omitempty"`
	PublicKeyPath   *string `json:"public_key_path,omitempty"`
}

func (p Patch) apply(r Realm) Realm {
	if p.Issuer != nil {
		r.Issuer = *p.Issuer
	}
	if p.Audience != nil {
		r.Audience = *p.Audience
	}
	if p.AccessTokenTTL != nil {
		r.AccessTokenTTL = *p.AccessTokenTTL
	}
	if p.RefreshTokenTTL != nil {
		r.RefreshTokenTTL = *p.RefreshTokenTTL
	}
	if p.PrivateKeyPath != nil {
		r.PrivateKeyPath = *p.PrivateKeyPath
	}
	if p.PublicKeyPath != nil {
		r.PublicKeyPath = *p.PublicKeyPath
	}
	return r
}
