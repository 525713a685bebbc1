// Package actions holds deferred mutating-action proposals awaiting an
// explicit user decision. A proposal is created the moment the completion
// provider requests a mutating tool, and is consumed exactly once when the
// user approves, rejects, or lets it expire.
package actions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Proposal is one deferred mutating tool call.
type Proposal struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	ToolName  string         `json:"toolName"`
	Args      map[string]any `json:"arguments"`
	Summary   string         `json:"summary"` // localized human-readable description
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Expired reports whether the proposal's TTL has elapsed at now.
func (p *Proposal) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Store is the injectable pending-action store. Implementations must make
// Create, Get, and Remove atomic per action id: two concurrent decisions
// against the same id must not both observe a successful removal.
type Store interface {
	// Create persists a new proposal and returns it with id and timestamps assigned.
	Create(ctx context.Context, userID, toolName string, args map[string]any, summary string) (*Proposal, error)

	// Get returns the proposal with the given id if it belongs to userID
	// and has not expired; nil otherwise.
	Get(ctx context.Context, id, userID string) (*Proposal, error)

	// Remove deletes the proposal. It is idempotent and reports whether
	// this call performed the removal; exactly one concurrent caller
	// observes true.
	Remove(ctx context.Context, id string) (bool, error)
}

// newProposal assembles a proposal with fresh identity and timestamps.
func newProposal(userID, toolName string, args map[string]any, summary string, ttl time.Duration) *Proposal {
	now := time.Now().UTC()
	return &Proposal{
		ID:        uuid.New().String(),
		UserID:    userID,
		ToolName:  toolName,
		Args:      args,
		Summary:   summary,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
