// Package intent implements coarse classification of user messages for the
// assistant. It uses weighted regex patterns, fast enough to run on every
// turn before any provider call is made.
package intent

import (
	"regexp"
	"strings"
)

// Type is the coarse intent of a user message.
type Type string

const (
	// TypeNavigate is a request to open a workspace page.
	TypeNavigate Type = "navigate"
	// TypeAction is a request to change or query workspace data.
	TypeAction Type = "action"
	// TypeClarify means the message is too vague to act on.
	TypeClarify Type = "clarify"
	// TypeOther is everything else (small talk, general questions).
	TypeOther Type = "other"
)

// Result is a classification outcome.
type Result struct {
	Type                 Type    `json:"type"`
	NavigateTo           string  `json:"navigateTo,omitempty"` // target path for TypeNavigate
	Confidence           float64 `json:"confidence"`
	RequiresConfirmation bool    `json:"requiresConfirmation"` // the message implies a mutation
}

// Classifier classifies user messages.
type Classifier struct {
	navigate []navigatePattern
	action   []*weightedPattern
	mutating []*weightedPattern
}

type navigatePattern struct {
	regex  *regexp.Regexp
	target string
}

type weightedPattern struct {
	regex  *regexp.Regexp
	weight float64
}

// NewClassifier creates a classifier with the built-in pattern set.
func NewClassifier() *Classifier {
	return &Classifier{
		navigate: []navigatePattern{
			{regexp.MustCompile(`(open|show|go to|take me to|switch to).*(calendar|schedule|agenda)`), "/calendar"},
			{regexp.MustCompile(`(open|show|go to|take me to|switch to).*(board|kanban|tasks)`), "/kanban"},
			{regexp.MustCompile(`(open|show|go to|take me to|switch to).*(notes?)`), "/notes"},
			{regexp.MustCompile(`(open|show|go to|take me to|switch to).*(journal|diary)`), "/journal"},
			{regexp.MustCompile(`(open|show|go to|take me to|switch to).*(home|dashboard|overview)`), "/"},
		},
		action: []*weightedPattern{
			{regexp.MustCompile(`\b(schedule|book|plan|reschedule|move|cancel)\b`), 1.0},
			{regexp.MustCompile(`\b(create|add|new|make)\b`), 0.9},
			{regexp.MustCompile(`\b(delete|remove|finish|complete|close)\b`), 0.9},
			{regexp.MustCompile(`\b(update|change|rename|edit)\b`), 0.8},
			{regexp.MustCompile(`\b(list|find|search|what|when|which|show me)\b`), 0.6},
			{regexp.MustCompile(`\b(meeting|event|appointment|task|note|entry|reminder)\b`), 0.7},
			{regexp.MustCompile(`\b(today|tomorrow|next week|this week|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`), 0.5},
		},
		mutating: []*weightedPattern{
			{regexp.MustCompile(`\b(schedule|book|create|add|delete|remove|cancel|move|update|change|rename|reschedule)\b`), 1.0},
		},
	}
}

// Classify analyzes a message and returns its intent.
func (c *Classifier) Classify(message string) Result {
	lower := strings.ToLower(strings.TrimSpace(message))

	if lower == "" {
		return Result{Type: TypeClarify, Confidence: 1.0}
	}

	// Navigation wins outright when a pattern matches: no provider call
	// and no tools are needed to open a page.
	for _, p := range c.navigate {
		if p.regex.MatchString(lower) {
			return Result{Type: TypeNavigate, NavigateTo: p.target, Confidence: 0.95}
		}
	}

	var score float64
	var matches int
	for _, p := range c.action {
		if p.regex.MatchString(lower) {
			score += p.weight
			matches++
		}
	}

	if score >= 0.6 {
		confidence := score / (score + 1.0)
		if matches >= 2 {
			confidence = minFloat(confidence+0.2, 1.0)
		}
		return Result{
			Type:                 TypeAction,
			Confidence:           confidence,
			RequiresConfirmation: c.impliesMutation(lower),
		}
	}

	// Very short messages with no action signal are usually fragments.
	if len(strings.Fields(lower)) <= 2 {
		return Result{Type: TypeClarify, Confidence: 0.6}
	}

	return Result{Type: TypeOther, Confidence: 0.5}
}

func (c *Classifier) impliesMutation(lower string) bool {
	for _, p := range c.mutating {
		if p.regex.MatchString(lower) {
			return true
		}
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
