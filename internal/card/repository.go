package card

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no card exists for the requested identifier.
var ErrNotFound = errors.New("card not found")

// Repository provides read-only card lookups. Card creation and deletion
// belong to an external administration surface.
type Repository interface {
	Get(ctx context.Context, id string) (Card, error)
}

// PostgresRepository reads cards from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches a card by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Card, error) {
	cardID, err := uuid.Parse(id)
	if err != nil {
		return Card{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, owner_id, network, bank_name, number, balance
        FROM cards WHERE id = $1`, cardID)
	var (
		c       Card
		idVal   uuid.UUID
		ownerID uuid.UUID
		network string
	)
	if err := row.Scan(&idVal, &ownerID, &network, &c.BankName, &c.Number, &c.Balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Card{}, ErrNotFound
		}
		return Card{}, err
	}
	c.ID = idVal.String()
	c.OwnerID = ownerID.String()
	c.Network = Network(network)
	return c, nil
}
