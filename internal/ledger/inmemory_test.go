package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/uzpay/uzpay/internal/funds"
)

func seedTestCard(s Store, id, owner, balance string) {
	SeedCard(s, id, owner, decimal.RequireFromString(balance))
}

func commit(id, owner, amount, key string) CommitInput {
	return CommitInput{
		CardID:         id,
		PayerID:        owner,
		MerchantID:     "merchant-1",
		Amount:         decimal.RequireFromString(amount),
		PhoneNumber:    "+998901234567",
		DeviceID:       "device-1",
		OriginIP:       "203.0.113.7",
		IdempotencyKey: key,
	}
}

func TestInMemoryStore_CommitDebitsAndRecords(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	seedTestCard(s, "card-1", "user-1", "100.00")

	tx, err := s.CommitPurchase(ctx, commit("card-1", "user-1", "40.00", "k-1"))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if tx.ID == 0 {
		t.Fatalf("expected assigned transaction id")
	}
	if !tx.Amount.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("unexpected amount: %s", tx.Amount)
	}

	balance, err := s.Balance(ctx, "card-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("expected balance 60.00, got %s", balance)
	}
	if n := CommittedCount(s, "card-1"); n != 1 {
		t.Fatalf("expected 1 transaction, got %d", n)
	}
}

func TestInMemoryStore_InsufficientFundsLeavesStateUntouched(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	seedTestCard(s, "card-1", "user-1", "30.00")

	if _, err := s.CommitPurchase(ctx, commit("card-1", "user-1", "40.00", "k-1")); err != funds.ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	balance, _ := s.Balance(ctx, "card-1")
	if !balance.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("balance changed on failed commit: %s", balance)
	}
	if n := CommittedCount(s, "card-1"); n != 0 {
		t.Fatalf("expected no transactions, got %d", n)
	}
}

func TestInMemoryStore_CardChecks(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	seedTestCard(s, "card-1", "user-1", "50.00")

	if _, err := s.CommitPurchase(ctx, commit("missing", "user-1", "10.00", "k-1")); err != ErrCardNotFound {
		t.Fatalf("expected card not found, got %v", err)
	}
	if _, err := s.CommitPurchase(ctx, commit("card-1", "intruder", "10.00", "k-2")); err != ErrNotCardOwner {
		t.Fatalf("expected ownership error, got %v", err)
	}
	if _, err := s.CommitPurchase(ctx, commit("card-1", "user-1", "-1.00", "k-3")); err != funds.ErrInvalidAmount {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestInMemoryStore_DuplicateKeyReplaysWithoutSecondDebit(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	seedTestCard(s, "card-1", "user-1", "100.00")

	first, err := s.CommitPurchase(ctx, commit("card-1", "user-1", "40.00", "dup"))
	if err != nil {
		t.Fatalf("initial commit failed: %v", err)
	}

	replay, err := s.CommitPurchase(ctx, commit("card-1", "user-1", "40.00", "dup"))
	if err != ErrDuplicatePurchase {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if replay.ID != first.ID {
		t.Fatalf("replay returned different transaction: %d vs %d", replay.ID, first.ID)
	}

	balance, _ := s.Balance(ctx, "card-1")
	if !balance.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("expected single debit, balance %s", balance)
	}
	if n := CommittedCount(s, "card-1"); n != 1 {
		t.Fatalf("expected 1 transaction, got %d", n)
	}
}

func TestInMemoryStore_ConcurrentCommitsNeverOverspend(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	seedTestCard(s, "card-1", "user-1", "100.00")

	const workers = 5
	amount := "40.00"

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CommitPurchase(ctx, commit("card-1", "user-1", amount, fmt.Sprintf("k-%d", i)))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		switch err {
		case nil:
			succeeded++
		case funds.ErrInsufficientFunds:
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// floor(100/40) commits fit the balance, the rest must observe
	// insufficient funds.
	if succeeded != 2 || rejected != 3 {
		t.Fatalf("expected 2 successes and 3 rejections, got %d/%d", succeeded, rejected)
	}

	balance, _ := s.Balance(ctx, "card-1")
	if !balance.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected final balance 20.00, got %s", balance)
	}
	if n := CommittedCount(s, "card-1"); n != 2 {
		t.Fatalf("expected 2 transactions, got %d", n)
	}
}

func TestInMemoryStore_TimestampsNonDecreasing(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	seedTestCard(s, "card-1", "user-1", "100.00")

	var last Transaction
	for i := 0; i < 5; i++ {
		tx, err := s.CommitPurchase(ctx, commit("card-1", "user-1", "1.00", fmt.Sprintf("seq-%d", i)))
		if err != nil {
			t.Fatalf("commit %d failed: %v", i, err)
		}
		if i > 0 {
			if tx.ID <= last.ID {
				t.Fatalf("ids not increasing: %d after %d", tx.ID, last.ID)
			}
			if tx.CreatedAt.Before(last.CreatedAt) {
				t.Fatalf("timestamps decreased: %s after %s", tx.CreatedAt, last.CreatedAt)
			}
		}
		last = tx
	}
}
