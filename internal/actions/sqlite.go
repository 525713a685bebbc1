package actions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteStore is the multi-process Store backed by the pending_actions
// table. Removal atomicity comes from the single DELETE statement: exactly
// one concurrent caller sees an affected row.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLiteStore creates a database-backed store with the given proposal TTL.
func NewSQLiteStore(db *sql.DB, ttl time.Duration) *SQLiteStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SQLiteStore{db: db, ttl: ttl}
}

// Create persists a new proposal.
func (s *SQLiteStore) Create(ctx context.Context, userID, toolName string, args map[string]any, summary string) (*Proposal, error) {
	p := newProposal(userID, toolName, args, summary, s.ttl)

	argsJSON, err := json.Marshal(p.Args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_actions (id, user_id, tool_name, arguments, summary, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.ToolName, string(argsJSON), p.Summary, p.CreatedAt, p.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pending action: %w", err)
	}

	return p, nil
}

// Get returns the owner's unexpired proposal, or nil.
func (s *SQLiteStore) Get(ctx context.Context, id, userID string) (*Proposal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, tool_name, arguments, summary, created_at, expires_at
		FROM pending_actions
		WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	p := &Proposal{}
	var argsJSON string
	err := row.Scan(&p.ID, &p.UserID, &p.ToolName, &argsJSON, &p.Summary, &p.CreatedAt, &p.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending action: %w", err)
	}

	if p.Expired(time.Now().UTC()) {
		// Prune lazily; the caller sees the same "not found" either way.
		_, _ = s.Remove(ctx, id)
		return nil, nil
	}

	if err := json.Unmarshal([]byte(argsJSON), &p.Args); err != nil {
		p.Args = map[string]any{}
	}
	return p, nil
}

// Remove deletes the proposal, reporting whether this call removed it.
func (s *SQLiteStore) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_actions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete pending action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
