package modules

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifedesk/lifedesk/internal/tools"
)

// Note is one workspace note.
type Note struct {
	ID     string `json:"id"`
	UserID string `json:"-"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// NotesStore provides note persistence.
type NotesStore struct {
	db *sql.DB
}

// Search returns notes whose title or body contains the query, most
// recently updated first.
func (s *NotesStore) Search(ctx context.Context, userID, query string, limit int) ([]*Note, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + query + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, body
		FROM notes
		WHERE user_id = ? AND (title LIKE ? OR body LIKE ?)
		ORDER BY updated_at DESC
		LIMIT ?`,
		userID, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	var out []*Note
	for rows.Next() {
		n := &Note{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Create inserts a new note.
func (s *NotesStore) Create(ctx context.Context, n *Note) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Body, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (w *Workspace) registerNotesTools(reg *tools.Registry) {
	reg.Register(&tools.Descriptor{
		Name:        "notes_search",
		Description: "Search notes by a text query over titles and bodies.",
		Module:      Notes,
		Mutating:    false,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"query": {Type: "string", Description: "Search text."},
			"limit": {Type: "integer", Description: "Maximum results, default 10."},
		}, "query"),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			notes, err := w.Notes.Search(ctx, call.UserID,
				tools.String(call.Args, "query", ""),
				tools.Int(call.Args, "limit", 10),
			)
			if err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(map[string]any{"notes": notes, "count": len(notes)})
		},
	})

	reg.Register(&tools.Descriptor{
		Name:        "notes_create",
		Description: "Create a new note.",
		Module:      Notes,
		Mutating:    true,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"title": {Type: "string", Description: "Note title."},
			"body":  {Type: "string", Description: "Note body."},
		}, "title"),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			n := &Note{
				UserID: call.UserID,
				Title:  tools.String(call.Args, "title", ""),
				Body:   tools.String(call.Args, "body", ""),
			}
			if err := w.Notes.Create(ctx, n); err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(n)
		},
	})
}
