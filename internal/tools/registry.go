// Package tools implements the assistant's tool registry and dispatcher.
// Tools are grouped by workspace module (calendar, kanban, notes, journal)
// and flagged as mutating or read-only; mutating tools are gated behind
// user confirmation by the turn coordinator.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lifedesk/lifedesk/internal/llm"
	"github.com/lifedesk/lifedesk/internal/logging"
)

// Handler executes one tool call with already-validated arguments.
type Handler func(ctx context.Context, call *Call) Result

// Descriptor describes one callable tool for both the dispatcher and the
// provider-facing function-calling catalog.
type Descriptor struct {
	Name        string
	Description string
	Parameters  *Schema // JSON schema for arguments
	Module      string  // owning workspace module
	Mutating    bool    // has an observable side effect on stored data
	Handler     Handler
}

// Call is one tool invocation request.
type Call struct {
	ID     string         // correlation id from the provider
	Name   string         // tool name
	Args   map[string]any // parsed arguments
	UserID string         // owner whose data the tool operates on
}

// Result is the ok/data/error envelope every tool returns.
type Result struct {
	CallID string `json:"-"`
	OK     bool   `json:"ok"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Ok builds a success result.
func Ok(data any) Result {
	return Result{OK: true, Data: data}
}

// Fail builds a failure result.
func Fail(format string, args ...any) Result {
	return Result{OK: false, Error: fmt.Sprintf(format, args...)}
}

// Registry maps tool names to descriptors and dispatches calls.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Descriptor
	log   zerolog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Descriptor),
		log:   logging.Component("tools"),
	}
}

// Register adds a tool descriptor. Registering a duplicate name panics:
// tool sets are wired at startup and a collision is a programming error.
func (r *Registry) Register(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[d.Name]; exists {
		panic(fmt.Sprintf("tools: duplicate registration of %q", d.Name))
	}
	r.tools[d.Name] = d
}

// Catalog returns provider-facing schemas for every tool belonging to one
// of the given modules, sorted by name for deterministic prompts. An empty
// module list yields an empty catalog.
func (r *Registry) Catalog(modules []string) []llm.ToolSchema {
	selected := make(map[string]bool, len(modules))
	for _, m := range modules {
		selected[m] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []llm.ToolSchema
	for _, d := range r.tools {
		if !selected[d.Module] {
			continue
		}
		out = append(out, llm.ToolSchema{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters.AsMap(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsMutating reports whether the named tool has side effects. Unknown
// tools are treated as mutating so nothing unrecognized slips past the
// confirmation gate.
func (r *Registry) IsMutating(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.tools[name]
	if !ok {
		return true
	}
	return d.Mutating
}

// Lookup returns the descriptor for name, or nil.
func (r *Registry) Lookup(name string) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Modules returns the distinct module tags of all registered tools.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, d := range r.tools {
		if !seen[d.Module] {
			seen[d.Module] = true
			out = append(out, d.Module)
		}
	}
	sort.Strings(out)
	return out
}

// Execute runs a single tool call. Argument validation happens here, at
// the dispatch boundary, so no handler ever sees arguments that failed its
// declared schema. All failures come back inside the Result envelope.
func (r *Registry) Execute(ctx context.Context, call *Call) Result {
	d := r.Lookup(call.Name)
	if d == nil {
		return withID(call, Fail("unknown tool %q", call.Name))
	}

	if err := d.Parameters.Validate(call.Args); err != nil {
		r.log.Debug().Str("tool", call.Name).Err(err).Msg("rejected tool arguments")
		return withID(call, Fail("invalid arguments: %v", err))
	}

	result := r.invoke(ctx, d, call)
	return withID(call, result)
}

// ExecuteParallel runs a batch of calls concurrently. Each call's failure
// is isolated: a failing or panicking tool never cancels its siblings.
// Results are positionally aligned with calls and carry the call ids for
// correlation.
func (r *Registry) ExecuteParallel(ctx context.Context, calls []*Call) []Result {
	results := make([]Result, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call *Call) {
			defer wg.Done()
			results[i] = r.Execute(ctx, call)
		}(i, call)
	}
	wg.Wait()

	return results
}

// invoke runs the handler, converting a panic into a failed result.
func (r *Registry) invoke(ctx context.Context, d *Descriptor, call *Call) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("tool", call.Name).Any("panic", rec).Msg("tool handler panicked")
			result = Fail("tool %q panicked: %v", call.Name, rec)
		}
	}()
	return d.Handler(ctx, call)
}

func withID(call *Call, result Result) Result {
	result.CallID = call.ID
	return result
}
