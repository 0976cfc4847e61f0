package identity

import (
	"context"
	"errors"
	"sync"
)

// ErrUnknownCredential indicates the presented credential resolves to no user.
var ErrUnknownCredential = errors.New("unknown credential")

// Identity is the authenticated caller as seen by the purchase core.
// Registration, token issuance and verification live in an external
// auth service; this package only resolves an opaque credential to an id.
type Identity struct {
	ID    string
	Phone string
}

// Provider resolves a bearer credential to an identity.
type Provider interface {
	Resolve(ctx context.Context, credential string) (Identity, error)
}

// StaticProvider maps fixed credentials to identities. Used in tests and
// when the service runs without a database.
type StaticProvider struct {
	mu      sync.RWMutex
	entries map[string]Identity
}

// NewStaticProvider constructs an empty static provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{entries: make(map[string]Identity)}
}

// Add registers a credential for the given identity.
func (p *StaticProvider) Add(credential string, id Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[credential] = id
}

// Resolve looks up the credential in the static table.
func (p *StaticProvider) Resolve(_ context.Context, credential string) (Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.entries[credential]
	if !ok {
		return Identity{}, ErrUnknownCredential
	}
	return id, nil
}
