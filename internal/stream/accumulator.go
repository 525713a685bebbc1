package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/lifedesk/lifedesk/internal/actions"
)

// Accumulator is the single-consumer client side of one turn's stream. It
// opens one growing assistant message, appends token (and error) text to
// it, records an action event's proposal, and invokes the navigation
// callback. Transport closure completes the accumulation whether or not a
// done event arrived, so older servers without the terminal event still
// work.
type Accumulator struct {
	text          strings.Builder
	pendingAction *actions.Proposal
	sawDone       bool
	onNavigate    func(path string)
}

// NewAccumulator creates an accumulator. onNavigate may be nil.
func NewAccumulator(onNavigate func(path string)) *Accumulator {
	return &Accumulator{onNavigate: onNavigate}
}

// Consume reads event blocks from r until EOF, applying each to the
// accumulated state. It returns an error only for a broken reader;
// malformed blocks are skipped.
func (a *Accumulator) Consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var kind, data string
	flush := func() {
		if kind != "" {
			a.apply(kind, data)
		}
		kind, data = "", ""
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "event: "):
			kind = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	flush()

	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Apply feeds one already-parsed event, for callers that transport events
// outside the SSE framing (e.g. the websocket observer).
func (a *Accumulator) Apply(ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	a.apply(ev.Kind, string(payload))
}

func (a *Accumulator) apply(kind, data string) {
	switch kind {
	case EventToken:
		var td TokenData
		if json.Unmarshal([]byte(data), &td) == nil {
			a.text.WriteString(td.Text)
		}
	case EventAction:
		var ad ActionData
		if json.Unmarshal([]byte(data), &ad) == nil {
			a.pendingAction = ad.Payload
		}
	case EventNavigate:
		var nd NavigateData
		if json.Unmarshal([]byte(data), &nd) == nil && a.onNavigate != nil {
			a.onNavigate(nd.Payload.Path)
		}
	case EventError:
		var ed ErrorData
		if json.Unmarshal([]byte(data), &ed) == nil {
			a.text.WriteString(ed.Message)
		}
	case EventDone:
		a.sawDone = true
	}
}

// Text returns the reconstructed assistant message.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// PendingAction returns the recorded proposal, or nil.
func (a *Accumulator) PendingAction() *actions.Proposal {
	return a.pendingAction
}

// Completed reports whether the explicit terminal event arrived.
func (a *Accumulator) Completed() bool {
	return a.sawDone
}
