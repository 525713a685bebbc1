package modules

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifedesk/lifedesk/internal/tools"
)

// JournalEntry is one dated journal record.
type JournalEntry struct {
	ID        string `json:"id"`
	UserID    string `json:"-"`
	Body      string `json:"body"`
	EntryDate string `json:"entryDate"` // YYYY-MM-DD
}

// JournalStore provides journal persistence.
type JournalStore struct {
	db *sql.DB
}

// Recent returns entries from the trailing window of days, newest first.
func (s *JournalStore) Recent(ctx context.Context, userID string, days int) ([]*JournalEntry, error) {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, body, entry_date
		FROM journal_entries
		WHERE user_id = ? AND entry_date >= ?
		ORDER BY entry_date DESC, created_at DESC`,
		userID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var out []*JournalEntry
	for rows.Next() {
		e := &JournalEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.Body, &e.EntryDate); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Append inserts a new entry dated today unless a date is given.
func (s *JournalStore) Append(ctx context.Context, e *JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.EntryDate == "" {
		e.EntryDate = time.Now().UTC().Format("2006-01-02")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal_entries (id, user_id, body, entry_date, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Body, e.EntryDate, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (w *Workspace) registerJournalTools(reg *tools.Registry) {
	reg.Register(&tools.Descriptor{
		Name:        "journal_recent",
		Description: "Read journal entries from the last days.",
		Module:      Journal,
		Mutating:    false,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"days": {Type: "integer", Description: "Window size in days, default 7."},
		}),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			entries, err := w.Journal.Recent(ctx, call.UserID, tools.Int(call.Args, "days", 7))
			if err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(map[string]any{"entries": entries, "count": len(entries)})
		},
	})

	reg.Register(&tools.Descriptor{
		Name:        "journal_append",
		Description: "Append a journal entry for today or a given date.",
		Module:      Journal,
		Mutating:    true,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"body": {Type: "string", Description: "Entry text."},
			"date": {Type: "string", Description: "Entry date YYYY-MM-DD, defaults to today."},
		}, "body"),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			e := &JournalEntry{
				UserID:    call.UserID,
				Body:      tools.String(call.Args, "body", ""),
				EntryDate: tools.String(call.Args, "date", ""),
			}
			if err := w.Journal.Append(ctx, e); err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(e)
		},
	})
}
