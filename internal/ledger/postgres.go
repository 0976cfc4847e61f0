package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/uzpay/uzpay/internal/funds"
)

// PostgresStore persists balances and transactions in PostgreSQL. The debit
// and the transaction row are written inside a single database transaction
// with the card row locked, so concurrent commits against the same card
// serialize and the balance check is never stale.
type PostgresStore struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresStore constructs a Postgres-backed store. timeout bounds each
// commit; zero disables the bound.
func NewPostgresStore(db *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

const selectTransactionByKey = `
        SELECT id, payer_id, card_id, merchant_id, amount, phone_number,
               device_id, origin_ip, idempotency_key, created_at
        FROM transactions WHERE idempotency_key = $1`

// CommitPurchase debits the card and records the transaction atomically.
func (s *PostgresStore) CommitPurchase(ctx context.Context, input CommitInput) (Transaction, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cardID, err := uuid.Parse(input.CardID)
	if err != nil {
		return Transaction{}, ErrCardNotFound
	}
	// The payer id comes from the auth layer; a malformed one is an internal
	// inconsistency, not an ownership failure.
	payerID, err := uuid.Parse(input.PayerID)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid payer id: %w", err)
	}
	merchantID, err := uuid.Parse(input.MerchantID)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid merchant id: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, classify(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	prev, err := transactionByKey(ctx, tx, input.IdempotencyKey)
	if err == nil {
		return prev, ErrDuplicatePurchase
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, classify(err)
	}

	var (
		ownerID uuid.UUID
		balance decimal.Decimal
	)
	err = tx.QueryRow(ctx, `SELECT owner_id, balance FROM cards WHERE id = $1 FOR UPDATE`, cardID).
		Scan(&ownerID, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrCardNotFound
	}
	if err != nil {
		return Transaction{}, classify(err)
	}
	if ownerID != payerID {
		return Transaction{}, ErrNotCardOwner
	}

	if err := funds.Authorize(balance, input.Amount); err != nil {
		return Transaction{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE cards SET balance = balance - $1 WHERE id = $2`,
		input.Amount, cardID); err != nil {
		return Transaction{}, classify(err)
	}

	result := Transaction{
		PayerID:        input.PayerID,
		CardID:         input.CardID,
		MerchantID:     input.MerchantID,
		Amount:         input.Amount,
		PhoneNumber:    input.PhoneNumber,
		DeviceID:       input.DeviceID,
		OriginIP:       input.OriginIP,
		IdempotencyKey: input.IdempotencyKey,
	}
	// now() is pinned at transaction start, before the row lock was won, so
	// it can run backwards relative to a commit that beat us to the lock.
	// clock_timestamp() is read here, after the predecessor committed, and
	// is clamped against the card's latest record.
	err = tx.QueryRow(ctx, `INSERT INTO transactions
            (payer_id, card_id, merchant_id, amount, phone_number, device_id, origin_ip, idempotency_key, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
            GREATEST(clock_timestamp(),
                (SELECT COALESCE(MAX(created_at), 'epoch'::timestamptz) FROM transactions WHERE card_id = $2)))
        RETURNING id, created_at`,
		payerID, cardID, merchantID, input.Amount, input.PhoneNumber,
		input.DeviceID, input.OriginIP, input.IdempotencyKey).
		Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		// A concurrent commit with the same key wins the unique index race;
		// surface the stored transaction like any other replay.
		if isUniqueViolation(err) {
			if prev, lookupErr := s.lookupByKey(ctx, input.IdempotencyKey); lookupErr == nil {
				return prev, ErrDuplicatePurchase
			}
		}
		return Transaction{}, classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, classify(err)
	}

	result.CreatedAt = result.CreatedAt.UTC()
	return result, nil
}

// Balance returns the current balance for a card.
func (s *PostgresStore) Balance(ctx context.Context, cardID string) (decimal.Decimal, error) {
	id, err := uuid.Parse(cardID)
	if err != nil {
		return decimal.Zero, ErrCardNotFound
	}
	var balance decimal.Decimal
	err = s.db.QueryRow(ctx, `SELECT balance FROM cards WHERE id = $1`, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrCardNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *PostgresStore) lookupByKey(ctx context.Context, key string) (Transaction, error) {
	return scanTransaction(s.db.QueryRow(ctx, selectTransactionByKey, key))
}

func transactionByKey(ctx context.Context, tx pgx.Tx, key string) (Transaction, error) {
	return scanTransaction(tx.QueryRow(ctx, selectTransactionByKey, key))
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t          Transaction
		payerID    uuid.UUID
		cardID     uuid.UUID
		merchantID uuid.UUID
	)
	err := row.Scan(&t.ID, &payerID, &cardID, &merchantID, &t.Amount, &t.PhoneNumber,
		&t.DeviceID, &t.OriginIP, &t.IdempotencyKey, &t.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	t.PayerID = payerID.String()
	t.CardID = cardID.String()
	t.MerchantID = merchantID.String()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

// classify maps driver-level contention onto ErrBusy so callers can retry.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrBusy, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %v", ErrBusy, err)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
