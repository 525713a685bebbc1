// Package snapshot builds the size-bounded context fragment injected into
// the completion request: a concurrent digest of the workspace modules
// relevant to the current message.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lifedesk/lifedesk/internal/modules"
	"github.com/lifedesk/lifedesk/internal/tools"
)

// DefaultBudget is the fragment character cap when none is configured.
const DefaultBudget = 4000

// notesQueryPrefixLen bounds the notes search key taken from the message.
const notesQueryPrefixLen = 64

// lookAheadDays is the calendar listing window.
const lookAheadDays = 7

// journalWindowDays is the journal rolling-window size.
const journalWindowDays = 7

// Snapshot is the rendered result.
type Snapshot struct {
	Fragment string   // prompt fragment, never exceeding the budget
	Modules  []string // modules that contributed (selected, even if empty)
}

// Builder gathers per-module summaries through the read-only tools.
type Builder struct {
	registry *tools.Registry
	budget   int
}

// NewBuilder creates a snapshot builder with the given character budget.
func NewBuilder(registry *tools.Registry, budget int) *Builder {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Builder{registry: registry, budget: budget}
}

// Build gathers summaries for the selected modules concurrently and merges
// them into one capped fragment. It never fails: a module whose fetch
// errors contributes an empty section, and an unselected module simply
// does not appear.
func (b *Builder) Build(ctx context.Context, userID, message string, selected []string) *Snapshot {
	type section struct {
		module string
		body   string
	}

	isSelected := make(map[string]bool, len(selected))
	for _, m := range selected {
		isSelected[m] = true
	}

	// Stable section order regardless of which fetch finishes first.
	order := []string{modules.Calendar, modules.Kanban, modules.Notes, modules.Journal}
	sections := make([]section, len(order))

	g, gctx := errgroup.WithContext(ctx)
	for i, mod := range order {
		if !isSelected[mod] {
			sections[i] = section{module: mod}
			continue
		}
		g.Go(func() error {
			sections[i] = section{module: mod, body: b.fetch(gctx, userID, mod, message)}
			return nil
		})
	}
	// Workers never return errors; Wait is just the join point.
	_ = g.Wait()

	var sb strings.Builder
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n%s\n", s.module, s.body))
	}

	fragment := sb.String()
	if len(fragment) > b.budget {
		fragment = fragment[:b.budget]
	}

	return &Snapshot{Fragment: fragment, Modules: selected}
}

// fetch issues the one read-only call that summarizes a module. Any
// failure collapses to an empty contribution.
func (b *Builder) fetch(ctx context.Context, userID, module, message string) string {
	var call *tools.Call

	switch module {
	case modules.Calendar:
		call = &tools.Call{
			Name:   "calendar_list_events",
			Args:   map[string]any{"days": lookAheadDays},
			UserID: userID,
		}
	case modules.Kanban:
		call = &tools.Call{
			Name:   "kanban_list_tasks",
			Args:   map[string]any{},
			UserID: userID,
		}
	case modules.Notes:
		query := strings.TrimSpace(message)
		if len(query) > notesQueryPrefixLen {
			query = query[:notesQueryPrefixLen]
		}
		if query == "" {
			return ""
		}
		call = &tools.Call{
			Name:   "notes_search",
			Args:   map[string]any{"query": query, "limit": 5},
			UserID: userID,
		}
	case modules.Journal:
		call = &tools.Call{
			Name:   "journal_recent",
			Args:   map[string]any{"days": journalWindowDays},
			UserID: userID,
		}
	default:
		return ""
	}

	result := b.registry.Execute(ctx, call)
	if !result.OK {
		return ""
	}

	body, err := json.Marshal(result.Data)
	if err != nil {
		return ""
	}
	return string(body)
}
