package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrCardNotFound occurs when the paying card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrNotCardOwner occurs when the paying card exists but belongs to a
	// different user than the caller.
	ErrNotCardOwner = errors.New("card does not belong to caller")

	// ErrDuplicatePurchase indicates the provided idempotency key was already
	// committed; the stored transaction is returned alongside this error so
	// callers can replay the original outcome instead of debiting twice.
	ErrDuplicatePurchase = errors.New("duplicate purchase")

	// ErrBusy indicates the commit lost a concurrency race or timed out
	// waiting for the card row. Safe to retry.
	ErrBusy = errors.New("ledger busy")
)

// Transaction is an immutable record of a committed purchase. The store
// assigns ID and CreatedAt at commit time; CreatedAt is non-decreasing
// per store.
type Transaction struct {
	ID             int64
	PayerID        string
	CardID         string
	MerchantID     string
	Amount         decimal.Decimal
	PhoneNumber    string
	DeviceID       string
	OriginIP       string
	IdempotencyKey string
	CreatedAt      time.Time
}

// CommitInput carries everything needed to debit a card and record the
// paired transaction.
type CommitInput struct {
	CardID         string
	PayerID        string
	MerchantID     string
	Amount         decimal.Decimal
	PhoneNumber    string
	DeviceID       string
	OriginIP       string
	IdempotencyKey string
}

// Store is the only shared mutable resource of the purchase path. It owns
// atomicity: CommitPurchase reads the balance, authorizes the debit and
// writes both the debit and the transaction row as one indivisible unit,
// serialized per card. Either both happen or neither does.
type Store interface {
	CommitPurchase(ctx context.Context, input CommitInput) (Transaction, error)
	Balance(ctx context.Context, cardID string) (decimal.Decimal, error)
}
