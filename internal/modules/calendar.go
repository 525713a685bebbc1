package modules

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lifedesk/lifedesk/internal/tools"
)

// Event is one calendar entry.
type Event struct {
	ID         string     `json:"id"`
	UserID     string     `json:"-"`
	Title      string     `json:"title"`
	Location   string     `json:"location,omitempty"`
	StartsAt   time.Time  `json:"startsAt"`
	EndsAt     *time.Time `json:"endsAt,omitempty"`
	LinkedTask string     `json:"linkedTask,omitempty"`
}

// CalendarStore provides event persistence.
type CalendarStore struct {
	db *sql.DB
}

// ListRange returns the user's events with start times inside [from, to).
func (s *CalendarStore) ListRange(ctx context.Context, userID string, from, to time.Time) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, location, starts_at, ends_at, linked_task
		FROM events
		WHERE user_id = ? AND starts_at >= ? AND starts_at < ?
		ORDER BY starts_at`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e := &Event{}
		var ends sql.NullTime
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Location, &e.StartsAt, &ends, &e.LinkedTask); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ends.Valid {
			e.EndsAt = &ends.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one event scoped to its owner.
func (s *CalendarStore) Get(ctx context.Context, userID, id string) (*Event, error) {
	e := &Event{}
	var ends sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, location, starts_at, ends_at, linked_task
		FROM events WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&e.ID, &e.UserID, &e.Title, &e.Location, &e.StartsAt, &ends, &e.LinkedTask)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if ends.Valid {
		e.EndsAt = &ends.Time
	}
	return e, nil
}

// Create inserts a new event.
func (s *CalendarStore) Create(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, user_id, title, location, starts_at, ends_at, linked_task, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Location, e.StartsAt, nullableTime(e.EndsAt), e.LinkedTask, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Update rewrites an event's mutable fields.
func (s *CalendarStore) Update(ctx context.Context, e *Event) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET title = ?, location = ?, starts_at = ?, ends_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Title, e.Location, e.StartsAt, nullableTime(e.EndsAt), time.Now().UTC(), e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s not found", e.ID)
	}
	return nil
}

// Delete removes an event.
func (s *CalendarStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s not found", id)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// parseWhen accepts RFC 3339 or the looser "2006-01-02 15:04" form the
// provider tends to produce.
func parseWhen(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func (w *Workspace) registerCalendarTools(reg *tools.Registry) {
	reg.Register(&tools.Descriptor{
		Name:        "calendar_list_events",
		Description: "List calendar events in a date range. Times are RFC 3339 or 'YYYY-MM-DD HH:MM'.",
		Module:      Calendar,
		Mutating:    false,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"from": {Type: "string", Description: "Range start (inclusive)."},
			"to":   {Type: "string", Description: "Range end (exclusive)."},
			"days": {Type: "integer", Description: "Alternative to from/to: number of days ahead from now."},
		}),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			from := time.Now().UTC().Truncate(24 * time.Hour)
			to := from.AddDate(0, 0, 7)

			if s := tools.String(call.Args, "from", ""); s != "" {
				t, err := parseWhen(s)
				if err != nil {
					return tools.Fail("%v", err)
				}
				from = t
			}
			if s := tools.String(call.Args, "to", ""); s != "" {
				t, err := parseWhen(s)
				if err != nil {
					return tools.Fail("%v", err)
				}
				to = t
			} else if d := tools.Int(call.Args, "days", 0); d > 0 {
				to = from.AddDate(0, 0, d)
			}

			events, err := w.Calendar.ListRange(ctx, call.UserID, from, to)
			if err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(map[string]any{"events": events, "count": len(events)})
		},
	})

	reg.Register(&tools.Descriptor{
		Name:        "calendar_create_event",
		Description: "Create a calendar event.",
		Module:      Calendar,
		Mutating:    true,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"title":     {Type: "string", Description: "Event title."},
			"starts_at": {Type: "string", Description: "Start time, RFC 3339 or 'YYYY-MM-DD HH:MM'."},
			"ends_at":   {Type: "string", Description: "Optional end time."},
			"location":  {Type: "string", Description: "Optional location."},
		}, "title", "starts_at"),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			starts, err := parseWhen(tools.String(call.Args, "starts_at", ""))
			if err != nil {
				return tools.Fail("%v", err)
			}

			e := &Event{
				UserID:   call.UserID,
				Title:    tools.String(call.Args, "title", ""),
				Location: tools.String(call.Args, "location", ""),
				StartsAt: starts,
			}
			if s := tools.String(call.Args, "ends_at", ""); s != "" {
				ends, err := parseWhen(s)
				if err != nil {
					return tools.Fail("%v", err)
				}
				e.EndsAt = &ends
			}

			if err := w.Calendar.Create(ctx, e); err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(e)
		},
	})

	reg.Register(&tools.Descriptor{
		Name:        "calendar_update_event",
		Description: "Change the title, time, or location of an existing calendar event.",
		Module:      Calendar,
		Mutating:    true,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"id":        {Type: "string", Description: "Event id."},
			"title":     {Type: "string", Description: "New title."},
			"starts_at": {Type: "string", Description: "New start time."},
			"ends_at":   {Type: "string", Description: "New end time."},
			"location":  {Type: "string", Description: "New location."},
		}, "id"),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			e, err := w.Calendar.Get(ctx, call.UserID, tools.String(call.Args, "id", ""))
			if err != nil {
				return tools.Fail("%v", err)
			}
			if e == nil {
				return tools.Fail("event not found")
			}

			if s := tools.String(call.Args, "title", ""); s != "" {
				e.Title = s
			}
			if s := tools.String(call.Args, "location", ""); s != "" {
				e.Location = s
			}
			if s := tools.String(call.Args, "starts_at", ""); s != "" {
				t, err := parseWhen(s)
				if err != nil {
					return tools.Fail("%v", err)
				}
				e.StartsAt = t
			}
			if s := tools.String(call.Args, "ends_at", ""); s != "" {
				t, err := parseWhen(s)
				if err != nil {
					return tools.Fail("%v", err)
				}
				e.EndsAt = &t
			}

			if err := w.Calendar.Update(ctx, e); err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(e)
		},
	})

	reg.Register(&tools.Descriptor{
		Name:        "calendar_delete_event",
		Description: "Delete a calendar event.",
		Module:      Calendar,
		Mutating:    true,
		Parameters: tools.NewSchema(map[string]tools.Property{
			"id": {Type: "string", Description: "Event id."},
		}, "id"),
		Handler: func(ctx context.Context, call *tools.Call) tools.Result {
			if err := w.Calendar.Delete(ctx, call.UserID, tools.String(call.Args, "id", "")); err != nil {
				return tools.Fail("%v", err)
			}
			return tools.Ok(map[string]any{"deleted": true})
		},
	})
}
