package card

import (
	"context"
	"sync"
)

// MemoryRepository holds cards in memory. Used in tests and when the
// service runs without a database.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Card
}

// NewMemoryRepository constructs an in-memory card repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{storage: make(map[string]Card)}
}

// Put stores a card, replacing any existing entry with the same id.
func (r *MemoryRepository) Put(c Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[c.ID] = c
}

// Get fetches a card by identifier.
func (r *MemoryRepository) Get(_ context.Context, id string) (Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.storage[id]
	if !ok {
		return Card{}, ErrNotFound
	}
	return c, nil
}
