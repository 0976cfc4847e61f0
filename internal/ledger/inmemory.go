package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uzpay/uzpay/internal/funds"
)

type memCard struct {
	ownerID string
	balance decimal.Decimal
}

type inMemoryStore struct {
	mu         sync.Mutex
	cards      map[string]memCard
	byKey      map[string]Transaction
	committed  []Transaction
	nextID     int64
	lastCommit time.Time
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit
// tests and database-less runs.
func NewInMemory() Store {
	return &inMemoryStore{
		cards: make(map[string]memCard),
		byKey: make(map[string]Transaction),
	}
}

func (s *inMemoryStore) CommitPurchase(_ context.Context, input CommitInput) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.IdempotencyKey != "" {
		if prev, exists := s.byKey[input.IdempotencyKey]; exists {
			return prev, ErrDuplicatePurchase
		}
	}

	c, ok := s.cards[input.CardID]
	if !ok {
		return Transaction{}, ErrCardNotFound
	}
	if c.ownerID != input.PayerID {
		return Transaction{}, ErrNotCardOwner
	}

	if err := funds.Authorize(c.balance, input.Amount); err != nil {
		return Transaction{}, err
	}

	c.balance = c.balance.Sub(input.Amount)
	s.cards[input.CardID] = c

	s.nextID++
	ts := time.Now().UTC()
	if ts.Before(s.lastCommit) {
		ts = s.lastCommit
	}
	s.lastCommit = ts

	tx := Transaction{
		ID:             s.nextID,
		PayerID:        input.PayerID,
		CardID:         input.CardID,
		MerchantID:     input.MerchantID,
		Amount:         input.Amount,
		PhoneNumber:    input.PhoneNumber,
		DeviceID:       input.DeviceID,
		OriginIP:       input.OriginIP,
		IdempotencyKey: input.IdempotencyKey,
		CreatedAt:      ts,
	}

	s.committed = append(s.committed, tx)
	if input.IdempotencyKey != "" {
		s.byKey[input.IdempotencyKey] = tx
	}
	return tx, nil
}

func (s *inMemoryStore) Balance(_ context.Context, cardID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[cardID]
	if !ok {
		return decimal.Zero, ErrCardNotFound
	}
	return c.balance, nil
}
