package session

import (
	"context"
	"sync"
)

// Store abstracts persistence of the signed-in identity.
type Store interface {
	// Load returns the stored identity or ErrNoIdentity.
	Load(ctx context.Context) (Identity, error)
	// Save validates and stores id, replacing any previous identity.
	Save(ctx context.Context, id Identity) error
	// Clear removes the stored identity. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// MemoryStore keeps the identity in process memory.
type MemoryStore struct {
	mu  sync.Mutex
	id  Identity
	set bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Load(_ context.Context) (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Identity{}, ErrNoIdentity
	}
	return s.id, nil
}

func (s *MemoryStore) Save(_ context.Context, id Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.id, s.set = id, true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.id, s.set = Identity{}, false
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
