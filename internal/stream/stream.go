// Package stream implements the assistant's streaming transport: a
// server-sent-events producer for one turn and the client-side accumulator
// that reconstructs the assistant message from the event sequence.
//
// The wire format is a sequence of blocks, each terminated by a blank
// line, of the form:
//
//	event: token
//	data: {"text":"..."}
//
// Event kinds are token, action, navigate, error, and a terminal done.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lifedesk/lifedesk/internal/actions"
)

// Event kinds.
const (
	EventToken    = "token"
	EventAction   = "action"
	EventNavigate = "navigate"
	EventError    = "error"
	EventDone     = "done"
)

// Event is one block on the wire.
type Event struct {
	Kind string
	Data any
}

// TokenData carries incremental assistant text.
type TokenData struct {
	Text string `json:"text"`
}

// ActionData carries a mutating-action proposal requiring confirmation.
type ActionData struct {
	Payload *actions.Proposal `json:"payload"`
}

// NavigateData carries a client-side navigation instruction.
type NavigateData struct {
	Payload NavigateTarget `json:"payload"`
}

// NavigateTarget is the navigation payload.
type NavigateTarget struct {
	Path string `json:"path"`
}

// ErrorData carries a human-readable failure description.
type ErrorData struct {
	Message string `json:"message"`
}

// Token builds a token event.
func Token(text string) Event {
	return Event{Kind: EventToken, Data: TokenData{Text: text}}
}

// Action builds an action event.
func Action(p *actions.Proposal) Event {
	return Event{Kind: EventAction, Data: ActionData{Payload: p}}
}

// Navigate builds a navigate event.
func Navigate(path string) Event {
	return Event{Kind: EventNavigate, Data: NavigateData{Payload: NavigateTarget{Path: path}}}
}

// Error builds an error event.
func Error(message string) Event {
	return Event{Kind: EventError, Data: ErrorData{Message: message}}
}

// Done builds the terminal event.
func Done() Event {
	return Event{Kind: EventDone, Data: struct{}{}}
}

// Writer produces the SSE stream for one turn. One turn has exactly one
// producer, so Writer needs no locking.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares w for event streaming and returns the producer.
func NewWriter(w http.ResponseWriter) *Writer {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// Send writes one event block and flushes it to the client.
func (sw *Writer) Send(ev Event) error {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}
