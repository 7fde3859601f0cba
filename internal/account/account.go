// Package account defines the user account aggregate and its directory
// implementations.
package account

import (
	"time"

	dErrors "realmgate/pkg/domain-errors"
)

// Account is a registered end user.
//
// Invariants:
//   - at least one of Email/Phone is set; each is unique when present
//   - at most one active refresh token at any time (single active session)
type Account struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email,omitempty"`
	Phone                 string     `json:"phone,omitempty"`
	PasswordHash          string     `json:"-"` // never serialized
	Roles                 []string   `json:"roles"`
	EmailVerified         bool       `json:"email_verified"`
	PhoneVerified         bool       `json:"phone_verified"`
	RefreshToken          string     `json:"-"` // active refresh token, empty when revoked
	RefreshTokenExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// New constructs an account, enforcing construction invariants.
func New(id, email, phone, passwordHash string, roles []string, now time.Time) (*Account, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account id cannot be empty")
	}
	if email == "" && phone == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account needs an email or a phone")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account password hash cannot be empty")
	}
	if len(roles) == 0 {
		roles = []string{"user"}
	}
	return &Account{
		ID:           id,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// View is the public projection of an account, safe to return to callers.
// It never includes the password hash or refresh-token state.
type View struct {
	ID            string   `json:"id"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Roles         []string `json:"roles"`
	EmailVerified bool     `json:"is_email_verified"`
	PhoneVerified bool     `json:"is_phone_verified"`
}

// Public returns the account's public view.
func (a *Account) Public() View {
	return View{
		ID:            a.ID,
		Email:         a.Email,
		Phone:         a.Phone,
		Roles:         a.Roles,
		EmailVerified: a.EmailVerified,
		PhoneVerified: a.PhoneVerified,
	}
}

// HasRole reports whether the account carries the given role.
func (a *Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
