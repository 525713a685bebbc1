package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lifedesk/lifedesk/internal/data"
)

// Store persists users and sessions in the workspace database.
type Store struct {
	db *data.Store
}

// NewStore creates the auth store.
func NewStore(db *data.Store) *Store {
	return &Store{db: db}
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.DisplayName, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UserByUsername returns the user with the given username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, username, password_hash, display_name, created_at, updated_at
		FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// UserByID returns the user with the given id.
func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, username, password_hash, display_name, created_at, updated_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateSession inserts a session row.
func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	_, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt, sess.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionByID returns the session with the given hashed-token id, or nil
// when it does not exist.
func (s *Store) SessionByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, created_at, last_used_at
		FROM sessions WHERE id = ?`, id)

	var sess Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &sess, nil
}

// TouchSession updates last_used_at.
func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.DB().ExecContext(ctx,
		`UPDATE sessions SET last_used_at = ? WHERE id = ?`, at, id)
	return err
}

// DeleteSession removes one session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.DB().ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpiredSessions prunes sessions past their expiry.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.DB().ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
