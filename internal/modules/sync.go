package modules

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lifedesk/lifedesk/internal/logging"
)

// Synchronizer propagates the side effects of an approved calendar change
// to linked kanban tasks: when an event with a linked task is created or
// moved, the task's due time follows the event's start time. Journal and
// notes mutations need no propagation.
type Synchronizer struct {
	workspace *Workspace
	log       zerolog.Logger
}

// NewSynchronizer creates a synchronizer over the workspace.
func NewSynchronizer(w *Workspace) *Synchronizer {
	return &Synchronizer{
		workspace: w,
		log:       logging.Component("sync"),
	}
}

// AfterApproved runs the post-approval synchronization for an executed
// mutating tool. Failures are logged, never surfaced: the user's approved
// action already succeeded and a sync hiccup must not undo that report.
func (s *Synchronizer) AfterApproved(ctx context.Context, userID, toolName string, result any) {
	if !strings.HasPrefix(toolName, "calendar_") {
		return
	}

	event, ok := result.(*Event)
	if !ok || event == nil || event.LinkedTask == "" {
		return
	}

	if err := s.workspace.Kanban.SetDue(ctx, userID, event.LinkedTask, event.StartsAt); err != nil {
		s.log.Warn().Err(err).
			Str("event", event.ID).
			Str("task", event.LinkedTask).
			Msg("calendar-to-task sync failed")
		return
	}

	s.log.Debug().Str("event", event.ID).Str("task", event.LinkedTask).Msg("synchronized linked task due time")
}
