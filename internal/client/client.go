// Package client defines OAuth 2.0 client registrations and their
// directory implementations.
package client

import (
	"time"

	dErrors "realmgate/pkg/domain-errors"
)

// GrantType is an OAuth 2.0 grant a client may be allowed to use.
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantImplicit          GrantType = "implicit"
	GrantPassword          GrantType = "password"
	GrantClientCredentials GrantType = "client_credentials"
	GrantRefreshToken      GrantType = "refresh_token"
)

// IsValid reports whether the grant type is one this service knows about.
func (g GrantType) IsValid() bool {
	switch g {
	case GrantAuthorizationCode, GrantImplicit, GrantPassword, GrantClientCredentials, GrantRefreshToken:
		return true
	}
	return false
}

// Client is an OAuth 2.0 client registration.
//
// Invariants:
//   - ClientID is unique and non-empty
//   - GrantTypes is a subset of the known grant types
//   - a grant may only be executed if GrantTypes contains it and the
//     client is active
type Client struct {
	ID           string      `json:"id"`
	ClientID     string      `json:"client_id"`
	ClientSecret string      `json:"-"` // returned once at creation, never serialized after
	Name         string      `json:"client_name"`
	Description  string      `json:"client_description,omitempty"`
	RedirectURIs []string    `json:"redirect_uris"`
	GrantTypes   []GrantType `json:"grant_types"`
	Scopes       []string    `json:"scopes"`
	IsActive     bool        `json:"is_active"`
	CreatedBy    string      `json:"created_by"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// New constructs a client registration, enforcing construction invariants.
func New(id, clientID, clientSecret, name, description, createdBy string, redirectURIs []string, grantTypes []GrantType, scopes []string, now time.Time) (*Client, error) {
	if clientID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client_id cannot be empty")
	}
	if clientSecret == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client_secret cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client name cannot be empty")
	}
	if len(grantTypes) == 0 {
		grantTypes = []GrantType{GrantClientCredentials}
	}
	for _, g := range grantTypes {
		if !g.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "invalid grant type %q", g)
		}
	}
	return &Client{
		ID:           id,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Name:         name,
		Description:  description,
		RedirectURIs: redirectURIs,
		GrantTypes:   grantTypes,
		Scopes:       scopes,
		IsActive:     true,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AllowsGrant reports whether the client may execute the given grant.
func (c *Client) AllowsGrant(g GrantType) bool {
	for _, allowed := range c.GrantTypes {
		if allowed == g {
			return true
		}
	}
	return false
}

// Patch carries a partial client update. Nil fields are left unchanged.
type Patch struct {
	Name         *string     `json:"client_name,omitempty"`
	Description  *string     `json:"client_description,omitempty"`
	RedirectURIs []string    `json:"redirect_uris,omitempty"`
	GrantTypes   []GrantType `json:"grant_types,omitempty"`
	Scopes       []string    `json:"scopes,omitempty"`
	IsActive     *bool       `json:"is_active,omitempty"`
}

// Apply merges the patch into the client, validating grant types.
func (p Patch) Apply(c *Client, now time.Time) error {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.RedirectURIs != nil {
		c.RedirectURIs = p.RedirectURIs
	}
	if p.GrantTypes != nil {
		for _, g := range p.GrantTypes {
			if !g.IsValid() {
				return dErrors.Newf(dErrors.CodeValidation, "invalid grant type %q", g)
			}
		}
		c.GrantTypes = p.GrantTypes
	}
	if p.Scopes != nil {
		c.Scopes = p.Scopes
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	c.UpdatedAt = now
	return nil
}
