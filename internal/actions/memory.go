package actions

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-process Store backed by a mutex-guarded map.
type MemoryStore struct {
	mu        sync.Mutex
	proposals map[string]*Proposal
	ttl       time.Duration
}

// NewMemoryStore creates an in-memory store with the given proposal TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryStore{
		proposals: make(map[string]*Proposal),
		ttl:       ttl,
	}
}

// Create persists a new proposal.
func (s *MemoryStore) Create(ctx context.Context, userID, toolName string, args map[string]any, summary string) (*Proposal, error) {
	p := newProposal(userID, toolName, args, summary, s.ttl)

	s.mu.Lock()
	s.proposals[p.ID] = p
	s.mu.Unlock()

	return p, nil
}

// Get returns the owner's unexpired proposal, or nil. Expired entries are
// pruned on sight.
func (s *MemoryStore) Get(ctx context.Context, id, userID string) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	if p.Expired(time.Now().UTC()) {
		delete(s.proposals, id)
		return nil, nil
	}
	return p, nil
}

// Remove deletes the proposal, reporting whether this call removed it.
func (s *MemoryStore) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.proposals[id]; !ok {
		return false, nil
	}
	delete(s.proposals, id)
	return true, nil
}
