// Package turn implements the assistant's turn orchestration core: one
// request/response exchange that either resolves a pending-action decision
// or runs the classify → gather-context → completion → act loop, bounded
// to a fixed number of steps.
package turn

import (
	"github.com/lifedesk/lifedesk/internal/actions"
	"github.com/lifedesk/lifedesk/internal/intent"
)

// HistoryMessage is one prior transcript entry supplied by the client.
type HistoryMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Settings is the presentation configuration passed through from the
// client; it shapes the system prompt, never the control flow.
type Settings struct {
	Nickname string `json:"nickname,omitempty"` // how the assistant addresses the user
	Tone     string `json:"tone,omitempty"`     // "concise", "friendly", ...
}

// Decision resolves a previously proposed mutating action.
type Decision struct {
	ActionID string `json:"actionId"`
	Approved bool   `json:"approved"`
}

// Input is everything one turn consumes.
type Input struct {
	UserID   string           `json:"-"`
	Message  string           `json:"message,omitempty"`
	History  []HistoryMessage `json:"history,omitempty"`
	Memory   []string         `json:"memory,omitempty"` // prior facts, passed through unchanged
	Settings Settings         `json:"settings"`
	Decision *Decision        `json:"actionDecision,omitempty"`
}

// Result is the terminal outcome of one turn. Every failure mode below
// the coordinator resolves into one of these; Run never errors.
type Result struct {
	Text          string            `json:"text"`
	Language      string            `json:"language"`
	Intent        intent.Result     `json:"intent"`
	NavigateTo    string            `json:"navigateTo,omitempty"`
	PendingAction *actions.Proposal `json:"pendingAction,omitempty"`
	UsedModules   []string          `json:"usedModules"`
}
