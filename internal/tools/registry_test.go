package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoDescriptor(name, module string, mutating bool) *Descriptor {
	return &Descriptor{
		Name:        name,
		Description: "echo " + name,
		Module:      module,
		Mutating:    mutating,
		Parameters: NewSchema(map[string]Property{
			"value": {Type: "string", Description: "echoed back"},
		}),
		Handler: func(_ context.Context, call *Call) Result {
			return Ok(call.Args["value"])
		},
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoDescriptor("echo", "notes", false))
	assert.Panics(t, func() {
		reg.Register(echoDescriptor("echo", "notes", false))
	})
}

func TestCatalogFiltersByModule(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoDescriptor("notes_echo", "notes", false))
	reg.Register(echoDescriptor("kanban_echo", "kanban", false))
	reg.Register(echoDescriptor("journal_echo", "journal", false))

	catalog := reg.Catalog([]string{"notes", "kanban"})
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"kanban_echo", "notes_echo"}, names, "sorted, journal excluded")

	params := catalog[0].Parameters
	assert.Equal(t, "object", params["type"])
}

func TestIsMutatingUnknownDefaultsTrue(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoDescriptor("reader", "notes", false))

	assert.False(t, reg.IsMutating("reader"))
	assert.True(t, reg.IsMutating("no_such_tool"), "unknown tools are treated as mutating")
}

func TestExecuteUnknownTool(t *testing.T) {
	reg := NewRegistry()
	res := reg.Execute(context.Background(), &Call{ID: "c1", Name: "ghost"})
	assert.False(t, res.OK)
	assert.Equal(t, "c1", res.CallID)
	assert.Contains(t, res.Error, "unknown tool")
}

func TestExecuteValidatesArguments(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Descriptor{
		Name:       "strict",
		Module:     "notes",
		Parameters: NewSchema(map[string]Property{"title": {Type: "string"}}, "title"),
		Handler: func(_ context.Context, _ *Call) Result {
			t.Fatal("handler must not run on invalid arguments")
			return Ok(nil)
		},
	})

	res := reg.Execute(context.Background(), &Call{Name: "strict", Args: map[string]any{}})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "title")

	res = reg.Execute(context.Background(), &Call{Name: "strict", Args: map[string]any{"title": ""}})
	assert.False(t, res.OK)

	res = reg.Execute(context.Background(), &Call{Name: "strict", Args: map[string]any{"title": 7}})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "string")
}

func TestExecuteEnumValidation(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Descriptor{
		Name:   "lanes",
		Module: "kanban",
		Parameters: NewSchema(map[string]Property{
			"lane": {Type: "string", Enum: []string{"todo", "doing", "done"}},
		}),
		Handler: func(_ context.Context, call *Call) Result { return Ok(call.Args["lane"]) },
	})

	ok := reg.Execute(context.Background(), &Call{Name: "lanes", Args: map[string]any{"lane": "doing"}})
	assert.True(t, ok.OK)

	bad := reg.Execute(context.Background(), &Call{Name: "lanes", Args: map[string]any{"lane": "limbo"}})
	assert.False(t, bad.OK)
	assert.Contains(t, bad.Error, "one of")
}

func TestExecuteParallel(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Descriptor{
		Name:       "slow",
		Module:     "notes",
		Parameters: NewSchema(nil),
		Handler: func(_ context.Context, call *Call) Result {
			time.Sleep(20 * time.Millisecond)
			return Ok("slow done")
		},
	})
	reg.Register(&Descriptor{
		Name:       "fast",
		Module:     "notes",
		Parameters: NewSchema(nil),
		Handler: func(_ context.Context, _ *Call) Result {
			return Ok("fast done")
		},
	})

	start := time.Now()
	results := reg.ExecuteParallel(context.Background(), []*Call{
		{ID: "a", Name: "slow"},
		{ID: "b", Name: "fast"},
		{ID: "c", Name: "slow"},
	})
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].CallID)
	assert.Equal(t, "slow done", results[0].Data)
	assert.Equal(t, "b", results[1].CallID)
	assert.Equal(t, "fast done", results[1].Data)
	assert.Equal(t, "c", results[2].CallID)
	assert.Less(t, elapsed, 100*time.Millisecond, "calls run concurrently")
}

func TestExecuteParallelIsolatesFailures(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Descriptor{
		Name:       "panics",
		Module:     "notes",
		Parameters: NewSchema(nil),
		Handler: func(_ context.Context, _ *Call) Result {
			panic("boom")
		},
	})
	reg.Register(echoDescriptor("echo", "notes", false))

	results := reg.ExecuteParallel(context.Background(), []*Call{
		{ID: "p", Name: "panics"},
		{ID: "e", Name: "echo", Args: map[string]any{"value": "still fine"}},
	})

	assert.False(t, results[0].OK)
	assert.True(t, strings.Contains(results[0].Error, "panicked"))
	assert.True(t, results[1].OK)
	assert.Equal(t, "still fine", results[1].Data)
}

func TestModules(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoDescriptor("b_tool", "beta", false))
	reg.Register(echoDescriptor("a_tool", "alpha", false))
	assert.Equal(t, []string{"alpha", "beta"}, reg.Modules())
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{"s": "text", "f": 3.0, "i": 4, "empty": ""}
	assert.Equal(t, "text", String(args, "s", "fallback"))
	assert.Equal(t, "fallback", String(args, "empty", "fallback"))
	assert.Equal(t, "fallback", String(args, "missing", "fallback"))
	assert.Equal(t, 3, Int(args, "f", 0))
	assert.Equal(t, 4, Int(args, "i", 0))
	assert.Equal(t, 9, Int(args, "missing", 9))
}
