// Package bus is the workspace event bus: thread-safe pub/sub with typed
// and wildcard subscriptions plus a bounded replay history. Assistant
// turns and approved mutations publish here; the websocket observer and
// any in-process listener subscribe.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a workspace event.
type EventType string

const (
	// EventTurnStarted fires when a turn begins processing.
	EventTurnStarted EventType = "turn_started"
	// EventTurnCompleted fires when a turn produces its final result.
	EventTurnCompleted EventType = "turn_completed"

	// EventActionProposed fires when a mutating tool call is deferred.
	EventActionProposed EventType = "action_proposed"
	// EventActionApproved fires when a pending action is approved and executed.
	EventActionApproved EventType = "action_approved"
	// EventActionRejected fires when a pending action is rejected.
	EventActionRejected EventType = "action_rejected"

	// EventWorkspaceChanged fires after any mutation lands in a module.
	EventWorkspaceChanged EventType = "workspace_changed"

	// EventNavigate fires when a turn resolves to a page navigation.
	EventNavigate EventType = "navigate"
)

// Event is one occurrence on the bus. Fields beyond the core triple are
// populated per type.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`

	UserID   string `json:"userId,omitempty"`
	Module   string `json:"module,omitempty"`   // workspace module involved
	Tool     string `json:"tool,omitempty"`     // tool name for action events
	ActionID string `json:"actionId,omitempty"` // pending-action correlation
	Path     string `json:"path,omitempty"`     // navigation target
	Intent   string `json:"intent,omitempty"`   // classified intent of the turn
	Detail   string `json:"detail,omitempty"`   // free-form description
}

// NewEvent creates an event with identity and timestamp assigned.
func NewEvent(t EventType, userID string) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Type:      t,
		UserID:    userID,
	}
}

// TurnStarted builds the turn-start event.
func TurnStarted(userID, intentType string) Event {
	e := NewEvent(EventTurnStarted, userID)
	e.Intent = intentType
	return e
}

// TurnCompleted builds the turn-completion event.
func TurnCompleted(userID, intentType, detail string) Event {
	e := NewEvent(EventTurnCompleted, userID)
	e.Intent = intentType
	e.Detail = detail
	return e
}

// ActionProposed builds the deferred-mutation event.
func ActionProposed(userID, actionID, tool, module string) Event {
	e := NewEvent(EventActionProposed, userID)
	e.ActionID = actionID
	e.Tool = tool
	e.Module = module
	return e
}

// ActionResolved builds the approval or rejection event.
func ActionResolved(userID, actionID, tool string, approved bool) Event {
	t := EventActionRejected
	if approved {
		t = EventActionApproved
	}
	e := NewEvent(t, userID)
	e.ActionID = actionID
	e.Tool = tool
	return e
}

// WorkspaceChanged builds the post-mutation event.
func WorkspaceChanged(userID, module, tool string) Event {
	e := NewEvent(EventWorkspaceChanged, userID)
	e.Module = module
	e.Tool = tool
	return e
}

// Navigated builds the navigation event.
func Navigated(userID, path string) Event {
	e := NewEvent(EventNavigate, userID)
	e.Path = path
	return e
}
