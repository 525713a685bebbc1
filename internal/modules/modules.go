// Package modules implements the workspace data domains (calendar, kanban,
// notes, journal): their storage, their assistant tools, and the keyword
// relevance selection that decides which domains participate in a turn.
package modules

import (
	"strings"

	"github.com/lifedesk/lifedesk/internal/data"
	"github.com/lifedesk/lifedesk/internal/tools"
)

// Module names. These are the tags tools carry in the registry and the
// values reported in a turn result's usedModules.
const (
	Calendar = "calendar"
	Kanban   = "kanban"
	Notes    = "notes"
	Journal  = "journal"
)

// All returns every module name.
func All() []string {
	return []string{Calendar, Kanban, Notes, Journal}
}

// Workspace bundles the per-module stores over one database.
type Workspace struct {
	Calendar *CalendarStore
	Kanban   *KanbanStore
	Notes    *NotesStore
	Journal  *JournalStore
}

// NewWorkspace creates the module stores on top of the data store.
func NewWorkspace(store *data.Store) *Workspace {
	db := store.DB()
	return &Workspace{
		Calendar: &CalendarStore{db: db},
		Kanban:   &KanbanStore{db: db},
		Notes:    &NotesStore{db: db},
		Journal:  &JournalStore{db: db},
	}
}

// RegisterTools registers every module's tools into the registry.
func (w *Workspace) RegisterTools(reg *tools.Registry) {
	w.registerCalendarTools(reg)
	w.registerKanbanTools(reg)
	w.registerNotesTools(reg)
	w.registerJournalTools(reg)
}

var moduleKeywords = map[string][]string{
	Calendar: {"calendar", "schedule", "meeting", "event", "appointment", "agenda", "remind", "tomorrow", "today", "week", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "morning", "afternoon", "evening", "o'clock"},
	Kanban:   {"task", "todo", "board", "kanban", "backlog", "doing", "done", "progress", "deadline", "due", "finish", "complete", "priorit"},
	Notes:    {"note", "notes", "write down", "jot", "document", "idea", "draft"},
	Journal:  {"journal", "diary", "yesterday", "reflect", "mood", "log", "entry", "wrote"},
}

// Select returns the modules relevant to a message, in stable order. A
// message matching nothing selects every module so the provider still gets
// a full catalog to choose from.
func Select(message string) []string {
	lower := strings.ToLower(message)

	var out []string
	for _, m := range All() {
		for _, kw := range moduleKeywords[m] {
			if strings.Contains(lower, kw) {
				out = append(out, m)
				break
			}
		}
	}

	if len(out) == 0 {
		return All()
	}
	return out
}
