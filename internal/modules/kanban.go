package modules

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifedesk/lifedesk/internal/tools"
)

// Board lanes.
const (
	LaneTodo  = "todo"
	LaneDoing = "doing"
	LaneDone  = "done"
)

// Task is one kanban card.
type Task struct {
	ID       string     `json:"id"`
	UserID   string     `json:"-"`
	Title    string     `json:"title"`
	Lane     string     `json:"lane"`
	Priority int        `json:"priority"`
	DueAt    *time.Time `json:"dueAt,omitempty"`
}

// KanbanStore provides task persistence.
type KanbanStore struct {
	db *sql.DB
}

// List returns the user's tasks, optionally filtered to one lane.
func (s *KanbanStore) List(ctx context.Context, userID, lane string) ([]*Task, error) {
	query := `SELECT id, user_id, title, lane, priority, due_at FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if lane != "" {
		query += ` AND lane = ?`
		args = append(args, lane)
	}
	query += ` ORDER BY priority DESC, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*Task
	for rows.Next() {
		t := &Task{}
		var due sql.NullTime
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Lane, &t.Priority, &due); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if due.Valid {
			t.DueAt = &due.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts a new task.
func (s *KanbanStore) Create(ctx context.Context, t *Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Lane == "" {
		t.Lane = LaneTodo
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, lane, priority, due_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Lane, t.Priority, nullableTime(t.DueAt), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Move changes a task's lane.
func (s *KanbanStore) Move(ctx context.Context, userID, id, lane string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET lane = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		lane, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

// SetDue updates a task's due time; used by post-approval calendar sync.
func (s *KanbanStore) SetDue(ctx context.Context, userID, id string, due time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET due_at = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		due, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("set task due: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}

func (w *Workspace) registerKanbanTools(reg *tools.Registry) {
	reg.Register(&tools.Descriptor{
		Name:        "kanban_list_tasks",
		Description: "List kanban board tasks, optionally filtered to one lane.",
		Module:      Kanban,
		Mutating:    false,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"lane": {Type: "string", Description: "Lane filter.", Enum: []string{LaneTodo, LaneDoing, LaneDone}},
		}),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			tasks, err := w.Kanban.List(ctx, call.UserID, tools.String(call.Args, "lane", ""))
			if err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(map[string]any{"tasks": tasks, "count": len(tasks)})
		},
	})

	reg.Register(&tools.Descriptor{
		Name:        "kanban_create_task",
		Description: "Create a task on the kanban board.",
		Module:      Kanban,
		Mutating:    true,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"title":    {Type: "string", Description: "Task title."},
			"lane":     {Type: "string", Description: "Starting lane, defaults to todo.", Enum: []string{LaneTodo, LaneDoing, LaneDone}},
			"priority": {Type: "integer", Description: "Priority, higher sorts first."},
			"due_at":   {Type: "string", Description: "Optional due time."},
		}, "title"),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			t := &Task{
				UserID:   call.UserID,
				Title:    tools.String(call.Args, "title", ""),
				Lane:     tools.String(call.Args, "lane", LaneTodo),
				Priority: tools.Int(call.Args, "priority", 0),
			}
			if s := tools.String(call.Args, "due_at", ""); s != "" {
				due, err := parseWhen(s)
				if err != nil {
					return tools.Fail("%v", err)
				}
				t.DueAt = &due
			}

			if err := w.Kanban.Create(ctx, t); err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(t)
		},
	})

	reg.Register(&tools.Descriptor{
		Name:        "kanban_move_task",
		Description: "Move a task to another lane on the board.",
		Module:      Kanban,
		Mutating:    true,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"id":   {Type: "string", Description: "Task id."},
			"lane": {Type: "string", Description: "Target lane.", Enum: []string{LaneTodo, LaneDoing, LaneDone}},
		}, "id", "lane"),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			id := tools.String(call.Args, "id", "")
			lane := tools.String(call.Args, "lane", "")
			if err := w.Kanban.Move(ctx, call.UserID, id, lane); err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(map[string]any{"id": id, "lane": lane})
		},
	})
}
