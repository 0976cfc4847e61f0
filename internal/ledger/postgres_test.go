package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Input validation runs before the pool is touched, so these cases need no
// database.
func TestPostgresStore_InvalidIDs(t *testing.T) {
	s := NewPostgresStore(nil, 0)
	ctx := context.Background()

	_, err := s.CommitPurchase(ctx, commit("not-a-uuid", uuid.NewString(), "10.00", "k-1"))
	if err != ErrCardNotFound {
		t.Fatalf("expected card not found for malformed card id, got %v", err)
	}

	// A malformed payer id means the auth layer handed us garbage. That is
	// an internal failure, not a 403-worthy ownership mismatch.
	_, err = s.CommitPurchase(ctx, commit(uuid.NewString(), "not-a-uuid", "10.00", "k-2"))
	if err == nil {
		t.Fatal("expected error for malformed payer id")
	}
	if errors.Is(err, ErrNotCardOwner) {
		t.Fatalf("malformed payer id must not map to ownership error: %v", err)
	}
	if !strings.Contains(err.Error(), "invalid payer id") {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.CommitPurchase(ctx, commit(uuid.NewString(), uuid.NewString(), "10.00", "k-3"))
	if err == nil || !strings.Contains(err.Error(), "invalid merchant id") {
		t.Fatalf("expected merchant id error, got %v", err)
	}
}

const testSchema = `
CREATE TABLE IF NOT EXISTS cards (
    id         uuid PRIMARY KEY,
    owner_id   uuid NOT NULL,
    network    text NOT NULL DEFAULT 'HUMO',
    bank_name  text NOT NULL DEFAULT '',
    number     text NOT NULL DEFAULT '',
    balance    numeric(20,2) NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
    id              bigserial PRIMARY KEY,
    payer_id        uuid NOT NULL,
    card_id         uuid NOT NULL,
    merchant_id     uuid NOT NULL,
    amount          numeric(20,2) NOT NULL,
    phone_number    text NOT NULL,
    device_id       text NOT NULL DEFAULT '',
    origin_ip       text NOT NULL DEFAULT '',
    idempotency_key text NOT NULL UNIQUE,
    created_at      timestamptz NOT NULL DEFAULT now()
);`

// newTestPool connects to the database named by TEST_DATABASE_URL and
// prepares the schema. Tests using it are skipped when the variable is unset.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(ctx, testSchema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE transactions, cards`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func pgCommit(cardID, ownerID, merchantID, amount, key string) CommitInput {
	in := commit(cardID, ownerID, amount, key)
	in.MerchantID = merchantID
	return in
}

func seedPostgresCard(t *testing.T, pool *pgxpool.Pool, cardID, ownerID, balance string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO cards (id, owner_id, balance) VALUES ($1, $2, $3)`,
		cardID, ownerID, decimal.RequireFromString(balance))
	if err != nil {
		t.Fatalf("seed card: %v", err)
	}
}

func TestPostgresStore_CommitAndReplay(t *testing.T) {
	pool := newTestPool(t)
	s := NewPostgresStore(pool, 5*time.Second)
	ctx := context.Background()

	cardID, ownerID, merchantID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	seedPostgresCard(t, pool, cardID, ownerID, "100.00")

	first, err := s.CommitPurchase(ctx, pgCommit(cardID, ownerID, merchantID, "40.00", "pg-dup"))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	replay, err := s.CommitPurchase(ctx, pgCommit(cardID, ownerID, merchantID, "40.00", "pg-dup"))
	if err != ErrDuplicatePurchase {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if replay.ID != first.ID {
		t.Fatalf("replay returned different transaction: %d vs %d", replay.ID, first.ID)
	}

	balance, err := s.Balance(ctx, cardID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("expected single debit, balance %s", balance)
	}
}

// Concurrent commits race for the card row lock in arbitrary order. A
// transaction that began first can still write last, so created_at must be
// taken while the lock is held, not at transaction start.
func TestPostgresStore_ConcurrentTimestampsNonDecreasing(t *testing.T) {
	pool := newTestPool(t)
	s := NewPostgresStore(pool, 5*time.Second)
	ctx := context.Background()

	cardID, ownerID, merchantID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	seedPostgresCard(t, pool, cardID, ownerID, "1000.00")

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.CommitPurchase(ctx, pgCommit(cardID, ownerID, merchantID, "1.00", fmt.Sprintf("pg-seq-%d", i))); err != nil {
				t.Errorf("commit %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	rows, err := pool.Query(ctx,
		`SELECT created_at FROM transactions WHERE card_id = $1 ORDER BY id`, cardID)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var prev time.Time
	n := 0
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if n > 0 && ts.Before(prev) {
			t.Fatalf("timestamps decreased: %s after %s", ts, prev)
		}
		prev = ts
		n++
	}
	if n != workers {
		t.Fatalf("expected %d transactions, got %d", workers, n)
	}
}
