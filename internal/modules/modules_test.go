package modules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifedesk/lifedesk/internal/data"
	"github.com/lifedesk/lifedesk/internal/tools"
)

func testWorkspace(t *testing.T) (*Workspace, *tools.Registry) {
	t.Helper()
	db, err := data.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	w := NewWorkspace(db)
	reg := tools.NewRegistry()
	w.RegisterTools(reg)
	return w, reg
}

func TestSelect(t *testing.T) {
	tests := []struct {
		message string
		want    []string
	}{
		{"what meetings do I have tomorrow?", []string{Calendar}},
		{"move the report task to done", []string{Kanban}},
		{"find my note about the budget", []string{Notes}},
		{"what did I write in my journal yesterday?", []string{Journal}},
		{"schedule a meeting and add a task", []string{Calendar, Kanban}},
		{"hello there", All()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Select(tt.message), "message: %s", tt.message)
	}
}

func TestRegisterToolsCatalog(t *testing.T) {
	_, reg := testWorkspace(t)

	names := map[string]bool{}
	for _, schema := range reg.Catalog(All()) {
		names[schema.Name] = true
	}
	for _, want := range []string{
		"calendar_list_events", "calendar_create_event", "calendar_update_event", "calendar_delete_event",
		"kanban_list_tasks", "kanban_create_task", "kanban_move_task",
		"notes_search", "notes_create",
		"journal_recent", "journal_append",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}

	assert.False(t, reg.IsMutating("calendar_list_events"))
	assert.True(t, reg.IsMutating("calendar_create_event"))
	assert.True(t, reg.IsMutating("kanban_move_task"))
	assert.True(t, reg.IsMutating("journal_append"))
}

func TestCalendarRoundTrip(t *testing.T) {
	_, reg := testWorkspace(t)
	ctx := context.Background()

	created := reg.Execute(ctx, &tools.Call{
		Name:   "calendar_create_event",
		UserID: "u1",
		Args: map[string]any{
			"title":     "standup",
			"starts_at": "2026-09-02 09:00",
			"location":  "office",
		},
	})
	require.True(t, created.OK, created.Error)
	event := created.Data.(*Event)
	assert.NotEmpty(t, event.ID)

	listed := reg.Execute(ctx, &tools.Call{
		Name:   "calendar_list_events",
		UserID: "u1",
		Args:   map[string]any{"from": "2026-09-02 00:00", "to": "2026-09-03 00:00"},
	})
	require.True(t, listed.OK, listed.Error)
	payload := listed.Data.(map[string]any)
	assert.Equal(t, 1, payload["count"])

	updated := reg.Execute(ctx, &tools.Call{
		Name:   "calendar_update_event",
		UserID: "u1",
		Args:   map[string]any{"id": event.ID, "title": "standup (moved)", "starts_at": "2026-09-02 10:00"},
	})
	require.True(t, updated.OK, updated.Error)
	assert.Equal(t, "standup (moved)", updated.Data.(*Event).Title)

	deleted := reg.Execute(ctx, &tools.Call{
		Name:   "calendar_delete_event",
		UserID: "u1",
		Args:   map[string]any{"id": event.ID},
	})
	require.True(t, deleted.OK, deleted.Error)
}

func TestCalendarScopedByUser(t *testing.T) {
	_, reg := testWorkspace(t)
	ctx := context.Background()

	created := reg.Execute(ctx, &tools.Call{
		Name:   "calendar_create_event",
		UserID: "owner",
		Args:   map[string]any{"title": "private", "starts_at": "2026-09-02 09:00"},
	})
	require.True(t, created.OK, created.Error)

	listed := reg.Execute(ctx, &tools.Call{
		Name:   "calendar_list_events",
		UserID: "other",
		Args:   map[string]any{"from": "2026-09-02 00:00", "to": "2026-09-03 00:00"},
	})
	require.True(t, listed.OK, listed.Error)
	assert.Equal(t, 0, listed.Data.(map[string]any)["count"])
}

func TestCalendarRejectsMissingRequired(t *testing.T) {
	_, reg := testWorkspace(t)

	res := reg.Execute(context.Background(), &tools.Call{
		Name:   "calendar_create_event",
		UserID: "u1",
		Args:   map[string]any{"title": "no start time"},
	})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "starts_at")
}

func TestKanbanLifecycle(t *testing.T) {
	w, reg := testWorkspace(t)
	ctx := context.Background()

	created := reg.Execute(ctx, &tools.Call{
		Name:   "kanban_create_task",
		UserID: "u1",
		Args:   map[string]any{"title": "write report", "lane": LaneTodo},
	})
	require.True(t, created.OK, created.Error)
	task := created.Data.(*Task)

	moved := reg.Execute(ctx, &tools.Call{
		Name:   "kanban_move_task",
		UserID: "u1",
		Args:   map[string]any{"id": task.ID, "lane": LaneDoing},
	})
	require.True(t, moved.OK, moved.Error)

	tasks, err := w.Kanban.List(ctx, "u1", LaneDoing)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "write report", tasks[0].Title)
}

func TestNotesSearch(t *testing.T) {
	_, reg := testWorkspace(t)
	ctx := context.Background()

	for _, title := range []string{"budget draft", "travel plan"} {
		res := reg.Execute(ctx, &tools.Call{
			Name:   "notes_create",
			UserID: "u1",
			Args:   map[string]any{"title": title, "body": "details about " + title},
		})
		require.True(t, res.OK, res.Error)
	}

	found := reg.Execute(ctx, &tools.Call{
		Name:   "notes_search",
		UserID: "u1",
		Args:   map[string]any{"query": "budget"},
	})
	require.True(t, found.OK, found.Error)
	notes := found.Data.(map[string]any)["notes"].([]*Note)
	require.Len(t, notes, 1)
	assert.Equal(t, "budget draft", notes[0].Title)
}

func TestJournalAppendAndRecent(t *testing.T) {
	_, reg := testWorkspace(t)
	ctx := context.Background()

	appended := reg.Execute(ctx, &tools.Call{
		Name:   "journal_append",
		UserID: "u1",
		Args:   map[string]any{"body": "productive day"},
	})
	require.True(t, appended.OK, appended.Error)

	recent := reg.Execute(ctx, &tools.Call{
		Name:   "journal_recent",
		UserID: "u1",
		Args:   map[string]any{"days": 1},
	})
	require.True(t, recent.OK, recent.Error)
	entries := recent.Data.(map[string]any)["entries"].([]*JournalEntry)
	require.Len(t, entries, 1)
	assert.Equal(t, "productive day", entries[0].Body)
}

func TestSynchronizerLinksEventToTask(t *testing.T) {
	w, _ := testWorkspace(t)
	ctx := context.Background()

	task := &Task{UserID: "u1", Title: "prepare slides", Lane: LaneTodo}
	require.NoError(t, w.Kanban.Create(ctx, task))

	starts := time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC)
	event := &Event{UserID: "u1", Title: "rehearsal", StartsAt: starts, LinkedTask: task.ID}
	require.NoError(t, w.Calendar.Create(ctx, event))

	sync := NewSynchronizer(w)
	sync.AfterApproved(ctx, "u1", "calendar_create_event", event)

	tasks, err := w.Kanban.List(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotNil(t, tasks[0].DueAt)
	assert.True(t, tasks[0].DueAt.Equal(starts))
}

func TestSynchronizerIgnoresUnrelated(t *testing.T) {
	w, _ := testWorkspace(t)
	sync := NewSynchronizer(w)

	// Neither of these should touch anything.
	sync.AfterApproved(context.Background(), "u1", "notes_create", &Note{})
	sync.AfterApproved(context.Background(), "u1", "calendar_create_event", &Event{Title: "no link"})
}
