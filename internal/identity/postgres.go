package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProvider resolves API tokens against the users table. The tokens
// themselves are minted elsewhere; this is a read-only lookup.
type PostgresProvider struct {
	db *pgxpool.Pool
}

// NewPostgresProvider builds a Postgres-backed identity provider.
func NewPostgresProvider(db *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// Resolve fetches the identity owning the presented token.
func (p *PostgresProvider) Resolve(ctx context.Context, credential string) (Identity, error) {
	row := p.db.QueryRow(ctx, `SELECT id, phone_number FROM users WHERE api_token = $1`, credential)
	var (
		id     uuid.UUID
		result Identity
	)
	if err := row.Scan(&id, &result.Phone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrUnknownCredential
		}
		return Identity{}, err
	}
	result.ID = id.String()
	return result, nil
}
