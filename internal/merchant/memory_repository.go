package merchant

import (
	"context"
	"sync"
)

// MemoryRepository holds merchants in memory for tests and database-less runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Merchant
}

// NewMemoryRepository constructs an in-memory merchant repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{storage: make(map[string]Merchant)}
}

// Put stores a merchant.
func (r *MemoryRepository) Put(m Merchant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[m.ID] = m
}

// Get fetches a merchant by identifier.
func (r *MemoryRepository) Get(_ context.Context, id string) (Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.storage[id]
	if !ok {
		return Merchant{}, ErrNotFound
	}
	return m, nil
}
