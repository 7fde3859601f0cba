// Package models defines the request and response shapes for the
// authentication flows.
package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"realmgate/internal/account"
	dErrors "realmgate/pkg/domain-errors"
)

// LoginType selects which identifier a login request carries.
type LoginType string

const (
	LoginTypeEmail LoginType = "email"
	LoginTypePhone LoginType = "phone"
)

// LoginRequest authenticates an account by email or phone plus password.
type LoginRequest struct {
	LoginType LoginType `json:"login_type"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Password  string    `json:"password"`
	Realm     string    `json:"realm,omitempty"`
}

// Normalize trims and lowercases the identifier fields in place.
func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Realm = strings.TrimSpace(r.Realm)
	if r.LoginType == "" {
		if r.Email != "" {
			r.LoginType = LoginTypeEmail
		} else if r.Phone != "" {
			r.LoginType = LoginTypePhone
		}
	}
}

// Validate checks the request is structurally usable before any store access.
func (r *LoginRequest) Validate() error {
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	switch r.LoginType {
	case LoginTypeEmail:
		if !govalidator.IsEmail(r.Email) {
			return dErrors.New(dErrors.CodeValidation, "a valid email is required")
		}
	case LoginTypePhone:
		if r.Phone == "" {
			return dErrors.New(dErrors.CodeValidation, "phone is required")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "login_type must be email or phone")
	}
	return nil
}

// RefreshRequest rotates a refresh token into a fresh token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidateRequest inspects an access token.
type ValidateRequest struct {
	Token string `json:"token"`
}

// TokenBundle is the result of login and refresh: a token pair plus the
// authenticated account's public view.
type TokenBundle struct {
	AccessToken           string       `json:"access_token"`
	RefreshToken          string       `json:"refresh_token"`
	TokenType             string       `json:"token_type"`
	ExpiresIn             int64        `json:"expires_in"`
	RefreshExpiresIn      int64        `json:"refresh_expires_in"`
	AccessTokenExpiresAt  time.Time    `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time    `json:"refresh_token_expires_at"`
	Account               account.View `json:"account"`
}

// Validation error codes reported by ValidateResult.
const (
	ValidationErrTokenExpired    = "token_expired"
	ValidationErrTokenInvalid    = "token_invalid"
	ValidationErrAccountNotFound = "account_not_found"
	ValidationErrTokenRevoked    = "token_revoked"
)

// ValidateResult describes an access token without leaking why an invalid
// token failed beyond a coarse error code. Validation never errors at the
// transport level; invalid tokens produce Valid=false.
type ValidateResult struct {
	Valid     bool          `json:"valid"`
	Account   *account.View `json:"account,omitempty"`
	Roles     []string      `json:"roles,omitempty"`
	IssuedAt  *time.Time    `json:"issued_at,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// OAuthTokenRequest is the form-encoded body of the RFC 6749 token endpoint.
type OAuthTokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Normalize trims whitespace from identifier fields in place.
func (r *OAuthTokenRequest) Normalize() {
	r.GrantType = strings.TrimSpace(r.GrantType)
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.Scope = strings.TrimSpace(r.Scope)
}

// Validate checks the fields every grant needs. Grant-specific fields are
// checked by the grant handlers. Missing client credentials report the same
// error as a failed credential match, so a caller cannot tell which client
// auth check failed.
func (r *OAuthTokenRequest) Validate() error {
	if r.GrantType == "" {
		return dErrors.New(dErrors.CodeBadRequest, "grant_type is required")
	}
	if r.ClientID == "" || r.ClientSecret == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid client credentials")
	}
	return nil
}

// OAuthTokenResponse is the RFC 6749 token endpoint response.
type OAuthTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// Normalize trims and lowercases identifiers in place.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
}

// Validate enforces registration preconditions.
func (r *RegisterRequest) Validate() error {
	if r.Email == "" && r.Phone == "" {
		return dErrors.New(dErrors.CodeValidation, "email or phone is required")
	}
	if r.Email != "" && !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}
