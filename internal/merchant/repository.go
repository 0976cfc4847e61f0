package merchant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the referenced merchant does not exist.
var ErrNotFound = errors.New("merchant not found")

// Repository provides read-only merchant lookups.
type Repository interface {
	Get(ctx context.Context, id string) (Merchant, error)
}

// PostgresRepository reads merchants from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches a merchant and its category by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Merchant, error) {
	merchantID, err := uuid.Parse(id)
	if err != nil {
		return Merchant{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT m.id, m.name, m.phone_number, c.id, c.name, c.description
        FROM merchants m
        INNER JOIN merchant_categories c ON c.id = m.category_id
        WHERE m.id = $1`, merchantID)
	var (
		m     Merchant
		mID   uuid.UUID
		catID uuid.UUID
	)
	if err := row.Scan(&mID, &m.Name, &m.PhoneNumber, &catID, &m.Category.Name, &m.Category.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Merchant{}, ErrNotFound
		}
		return Merchant{}, err
	}
	m.ID = mID.String()
	m.Category.ID = catID.String()
	return m, nil
}
