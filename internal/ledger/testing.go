package ledger

import "github.com/shopspring/decimal"

// SeedCard is a test helper that installs a card with the given owner and
// balance when using the in-memory store.
func SeedCard(s Store, cardID, ownerID string, balance decimal.Decimal) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.cards[cardID] = memCard{ownerID: ownerID, balance: balance}
	}
}

// CommittedCount is a test helper reporting how many transactions the
// in-memory store holds for a card.
func CommittedCount(s Store, cardID string) int {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return 0
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	n := 0
	for _, tx := range mem.committed {
		if tx.CardID == cardID {
			n++
		}
	}
	return n
}
