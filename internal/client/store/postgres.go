package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"realmgate/internal/client"
	"realmgate/pkg/platform/sentinel"
)

// Postgres persists OAuth client registrations in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE oauth_clients (
//	    id            TEXT PRIMARY KEY,
//	    client_id     TEXT UNIQUE NOT NULL,
//	    client_secret TEXT NOT NULL,
//	    name          TEXT NOT NULL,
//	    description   TEXT,
//	    redirect_uris TEXT[] NOT NULL DEFAULT '{}',
//	    grant_types   TEXT[] NOT NULL,
//	    scopes        TEXT[] NOT NULL DEFAULT '{}',
//	    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
//	    created_by    TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed client directory.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const clientColumns = `id, client_id, client_secret, name, description, redirect_uris, grant_types, scopes, is_active, created_by, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, c *client.Client) error {
	query := `
		INSERT INTO oauth_clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.ClientID,
		c.ClientSecret,
		c.Name,
		nullString(c.Description),
		pq.Array(c.RedirectURIs),
		pq.Array(grantStrings(c.GrantTypes)),
		pq.Array(c.Scopes),
		c.IsActive,
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("client_id already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, c *client.Client) error {
	query := `
		UPDATE oauth_clients
		SET name = $2, description = $3, redirect_uris = $4, grant_types = $5,
		    scopes = $6, is_active = $7, updated_at = NOW()
		WHERE client_id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		c.ClientID,
		c.Name,
		nullString(c.Description),
		pq.Array(c.RedirectURIs),
		pq.Array(grantStrings(c.GrantTypes)),
		pq.Array(c.Scopes),
		c.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireClientRow(res)
}

func (s *Postgres) Delete(ctx context.Context, clientID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM oauth_clients WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return requireClientRow(res)
}

func (s *Postgres) FindByClientID(ctx context.Context, clientID string) (*client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM oauth_clients WHERE client_id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, clientID))
}

// FindByClientCredentials resolves a client by exact id/secret match,
// requiring it to be active. The query folds all three checks together so
// every failure looks identical to the caller.
func (s *Postgres) FindByClientCredentials(ctx context.Context, clientID, clientSecret string) (*client.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM oauth_clients
		WHERE client_id = $1 AND client_secret = $2 AND is_active
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, clientID, clientSecret))
}

func (s *Postgres) List(ctx context.Context) ([]client.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM oauth_clients ORDER BY client_id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []client.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanOne(row *sql.Row) (*client.Client, error) {
	c, err := scanClient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func scanClient(row rowScanner) (*client.Client, error) {
	var (
		c           client.Client
		description sql.NullString
		grants      []string
	)
	err := row.Scan(
		&c.ID,
		&c.ClientID,
		&c.ClientSecret,
		&c.Name,
		&description,
		pq.Array(&c.RedirectURIs),
		pq.Array(&grants),
		pq.Array(&c.Scopes),
		&c.IsActive,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	c.Description = description.String
	c.GrantTypes = make([]client.GrantType, len(grants))
	for i, g := range grants {
		c.GrantTypes[i] = client.GrantType(g)
	}
	return &c, nil
}

func grantStrings(grants []client.GrantType) []string {
	out := make([]string, len(grants))
	for i, g := range grants {
		out[i] = string(g)
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireClientRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("client not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
