package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"realmgate/internal/account"
	"realmgate/pkg/platform/sentinel"
)

// Postgres persists accounts in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE accounts (
//	    id                       TEXT PRIMARY KEY,
//	    email                    TEXT UNIQUE,
//	    phone                    TEXT UNIQUE,
//	    password_hash            TEXT NOT NULL,
//	    roles                    TEXT[] NOT NULL,
//	    email_verified           BOOLEAN NOT NULL DEFAULT FALSE,
//	    phone_verified           BOOLEAN NOT NULL DEFAULT FALSE,
//	    refresh_token            TEXT,
//	    refresh_token_expires_at TIMESTAMPTZ,
//	    created_at               TIMESTAMPTZ NOT NULL,
//	    updated_at               TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account directory.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const accountColumns = `id, email, phone, password_hash, roles, email_verified, phone_verified, refresh_token, refresh_token_expires_at, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		nullString(a.Email),
		nullString(a.Phone),
		a.PasswordHash,
		pq.Array(a.Roles),
		a.EmailVerified,
		a.PhoneVerified,
		nullString(a.RefreshToken),
		a.RefreshTokenExpiresAt,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, a *account.Account) error {
	query := `
		UPDATE accounts
		SET email = $2, phone = $3, password_hash = $4, roles = $5,
		    email_verified = $6, phone_verified = $7, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		a.ID,
		nullString(a.Email),
		nullString(a.Phone),
		a.PasswordHash,
		pq.Array(a.Roles),
		a.EmailVerified,
		a.PhoneVerified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) FindByID(ctx context.Context, id string) (*account.Account, error) {
	return s.findBy(ctx, "id = $1", id)
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findBy(ctx, "email = $1", email)
}

func (s *Postgres) FindByPhone(ctx context.Context, phone string) (*account.Account, error) {
	return s.findBy(ctx, "phone = $1", phone)
}

func (s *Postgres) FindByRefreshToken(ctx context.Context, token string) (*account.Account, error) {
	if token == "" {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return s.findBy(ctx, "refresh_token = $1", token)
}

func (s *Postgres) SetRefreshToken(ctx context.Context, accountID, token string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET refresh_token = $2, refresh_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, accountID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ClearRefreshToken(ctx context.Context, accountID string) error {
	query := `
		UPDATE accounts
		SET refresh_token = NULL, refresh_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) findBy(ctx context.Context, where string, arg any) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where
	row := s.db.QueryRowContext(ctx, query, arg)

	var (
		a             account.Account
		email, phone  sql.NullString
		refreshToken  sql.NullString
		refreshExpiry sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&email,
		&phone,
		&a.PasswordHash,
		pq.Array(&a.Roles),
		&a.EmailVerified,
		&a.PhoneVerified,
		&refreshToken,
		&refreshExpiry,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	a.Email = email.String
	a.Phone = phone.String
	a.RefreshToken = refreshToken.String
	if refreshExpiry.Valid {
		t := refreshExpiry.Time
		a.RefreshTokenExpiresAt = &t
	}
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
