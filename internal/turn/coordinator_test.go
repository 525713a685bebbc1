package turn

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifedesk/lifedesk/internal/actions"
	"github.com/lifedesk/lifedesk/internal/intent"
	"github.com/lifedesk/lifedesk/internal/llm"
	"github.com/lifedesk/lifedesk/internal/modules"
	"github.com/lifedesk/lifedesk/internal/snapshot"
	"github.com/lifedesk/lifedesk/internal/tools"
)

// scriptedClient replays a fixed sequence of completions.
type scriptedClient struct {
	steps []*llm.Completion
	calls int
	// seen captures every transcript handed to Complete.
	seen [][]llm.Message
}

func (s *scriptedClient) Complete(_ context.Context, _ string, messages []llm.Message, _ []llm.ToolSchema) *llm.Completion {
	s.seen = append(s.seen, append([]llm.Message(nil), messages...))
	i := s.calls
	s.calls++
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	return s.steps[i]
}

func testRegistry(t *testing.T, listCount, createCount *atomic.Int64) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	reg.Register(&tools.Descriptor{
		Name:        "kanban_list_tasks",
		Description: "List tasks",
		Parameters:  tools.NewSchema(nil),
		Module:      modules.Kanban,
		Handler: func(context.Context, *tools.Call) tools.Result {
			if listCount != nil {
				listCount.Add(1)
			}
			return tools.Ok([]string{"write report"})
		},
	})
	reg.Register(&tools.Descriptor{
		Name:        "kanban_create_task",
		Description: "Create a task",
		Parameters: tools.NewSchema(map[string]tools.Property{
			"title": {Type: "string", Description: "task title"},
		}, "title"),
		Module:   modules.Kanban,
		Mutating: true,
		Handler: func(_ context.Context, call *tools.Call) tools.Result {
			if createCount != nil {
				createCount.Add(1)
			}
			return tools.Ok(map[string]any{"title": call.Args["title"]})
		},
	})
	return reg
}

func testCoordinator(t *testing.T, client CompletionClient, reg *tools.Registry, store actions.Store) *Coordinator {
	t.Helper()
	if store == nil {
		store = actions.NewMemoryStore(0)
	}
	return NewCoordinator(Config{
		Registry:  reg,
		Store:     store,
		Client:    client,
		Snapshots: snapshot.NewBuilder(reg, 0),
		Sync:      modules.NewSynchronizer(nil),
		Log:       zerolog.Nop(),
	})
}

func TestRunPlainAnswer(t *testing.T) {
	reg := testRegistry(t, nil, nil)
	client := &scriptedClient{steps: []*llm.Completion{{Content: "You have one task."}}}
	c := testCoordinator(t, client, reg, nil)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "what is on my board?"})

	assert.Equal(t, "You have one task.", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.Nil(t, res.PendingAction)
	assert.Equal(t, 1, client.calls)
}

func TestRunNavigateShortcut(t *testing.T) {
	reg := testRegistry(t, nil, nil)
	client := &scriptedClient{steps: []*llm.Completion{{Content: "unused"}}}
	c := testCoordinator(t, client, reg, nil)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "open my kanban board"})

	assert.Equal(t, intent.TypeNavigate, res.Intent.Type)
	assert.Equal(t, "/kanban", res.NavigateTo)
	assert.Empty(t, res.Text)
	assert.Zero(t, client.calls, "navigation must not reach the provider")
}

func TestRunToolRoundTrip(t *testing.T) {
	var lists atomic.Int64
	reg := testRegistry(t, &lists, nil)
	client := &scriptedClient{steps: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "kanban_list_tasks", Arguments: "{}"}}},
		{Content: "One task: write report."},
	}}
	c := testCoordinator(t, client, reg, nil)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "tell me about my chores"})

	assert.Equal(t, "One task: write report.", res.Text)
	// One read from the context snapshot, one from the provider's call.
	assert.EqualValues(t, 2, lists.Load())
	require.Equal(t, 2, client.calls)

	// The second request must carry the assistant tool-call message and a
	// correlated tool result.
	second := client.seen[1]
	require.GreaterOrEqual(t, len(second), 3)
	asst := second[len(second)-2]
	toolMsg := second[len(second)-1]
	assert.Equal(t, "assistant", asst.Role)
	require.Len(t, asst.ToolCalls, 1)
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, `"ok":true`)
}

func TestRunMutatingProposesWithoutExecuting(t *testing.T) {
	var lists, creates atomic.Int64
	reg := testRegistry(t, &lists, &creates)
	client := &scriptedClient{steps: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "kanban_list_tasks", Arguments: "{}"},
			{ID: "call_2", Name: "kanban_create_task", Arguments: `{"title":"buy milk"}`},
		}},
	}}
	store := actions.NewMemoryStore(0)
	c := testCoordinator(t, client, reg, store)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "add buy milk to my board"})

	require.NotNil(t, res.PendingAction)
	assert.Equal(t, "kanban_create_task", res.PendingAction.ToolName)
	assert.Equal(t, "buy milk", res.PendingAction.Args["title"])
	assert.Contains(t, res.Text, res.PendingAction.Summary)
	assert.True(t, res.Intent.RequiresConfirmation)

	// Neither the mutating call nor its read-only batch sibling ran; the
	// single list read is the context snapshot's.
	assert.Zero(t, creates.Load())
	assert.EqualValues(t, 1, lists.Load())
	assert.Equal(t, 1, client.calls)

	stored, err := store.Get(context.Background(), res.PendingAction.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestRunApproveExecutesOnce(t *testing.T) {
	var creates atomic.Int64
	reg := testRegistry(t, nil, &creates)
	store := actions.NewMemoryStore(0)
	c := testCoordinator(t, &scriptedClient{steps: []*llm.Completion{{Content: "x"}}}, reg, store)

	p, err := store.Create(context.Background(), "u1", "kanban_create_task",
		map[string]any{"title": "buy milk"}, "create task (title=buy milk)")
	require.NoError(t, err)

	res := c.Run(context.Background(), &Input{
		UserID:   "u1",
		Decision: &Decision{ActionID: p.ID, Approved: true},
	})

	assert.EqualValues(t, 1, creates.Load())
	assert.Contains(t, res.Text, p.Summary)
	assert.Equal(t, []string{modules.Kanban}, res.UsedModules)

	// A replayed approval finds nothing.
	again := c.Run(context.Background(), &Input{
		UserID:   "u1",
		Decision: &Decision{ActionID: p.ID, Approved: true},
	})
	assert.EqualValues(t, 1, creates.Load())
	assert.Equal(t, "Requested action was not found or has expired.", again.Text)
}

func TestRunRejectDiscards(t *testing.T) {
	var creates atomic.Int64
	reg := testRegistry(t, nil, &creates)
	store := actions.NewMemoryStore(0)
	c := testCoordinator(t, &scriptedClient{steps: []*llm.Completion{{Content: "x"}}}, reg, store)

	p, err := store.Create(context.Background(), "u1", "kanban_create_task",
		map[string]any{"title": "buy milk"}, "create task")
	require.NoError(t, err)

	res := c.Run(context.Background(), &Input{
		UserID:   "u1",
		Decision: &Decision{ActionID: p.ID, Approved: false},
	})

	assert.Zero(t, creates.Load())
	assert.Equal(t, "Understood, action was canceled.", res.Text)

	got, err := store.Get(context.Background(), p.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, got, "rejection must consume the proposal")
}

func TestRunDecisionWrongUser(t *testing.T) {
	reg := testRegistry(t, nil, nil)
	store := actions.NewMemoryStore(0)
	c := testCoordinator(t, &scriptedClient{steps: []*llm.Completion{{Content: "x"}}}, reg, store)

	p, err := store.Create(context.Background(), "owner", "kanban_create_task", nil, "create task")
	require.NoError(t, err)

	res := c.Run(context.Background(), &Input{
		UserID:   "intruder",
		Decision: &Decision{ActionID: p.ID, Approved: true},
	})

	assert.Equal(t, "Requested action was not found or has expired.", res.Text)

	// The owner's proposal is untouched.
	got, err := store.Get(context.Background(), p.ID, "owner")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestRunStepBudgetExhausted(t *testing.T) {
	var lists atomic.Int64
	reg := testRegistry(t, &lists, nil)
	// The provider keeps asking for the same read-only tool forever.
	loop := &llm.Completion{ToolCalls: []llm.ToolCall{{ID: "c", Name: "kanban_list_tasks", Arguments: "{}"}}}
	client := &scriptedClient{steps: []*llm.Completion{loop}}
	c := testCoordinator(t, client, reg, nil)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "review everything on my plate"})

	assert.Equal(t, "This request is too broad for one pass. Please clarify what to prioritize.", res.Text)
	assert.Equal(t, DefaultMaxSteps, client.calls)
	// One snapshot read plus one per loop step.
	assert.EqualValues(t, DefaultMaxSteps+1, lists.Load())
}

func TestRunProviderUnavailable(t *testing.T) {
	reg := testRegistry(t, nil, nil)
	client := &scriptedClient{steps: []*llm.Completion{nil}}
	c := testCoordinator(t, client, reg, nil)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "hello there"})

	assert.Equal(t, "The assistant is temporarily unavailable. Please try again in a moment.", res.Text)
}

func TestRunEmptyCompletion(t *testing.T) {
	reg := testRegistry(t, nil, nil)
	client := &scriptedClient{steps: []*llm.Completion{{Content: "   "}}}
	c := testCoordinator(t, client, reg, nil)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "hmm"})

	assert.NotEmpty(t, res.Text)
	assert.NotEqual(t, "   ", res.Text)
}

func TestRunMalformedToolArguments(t *testing.T) {
	var creates atomic.Int64
	reg := testRegistry(t, nil, &creates)
	client := &scriptedClient{steps: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "kanban_create_task", Arguments: `{"title": broken`}}},
	}}
	store := actions.NewMemoryStore(0)
	c := testCoordinator(t, client, reg, store)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "add something to my board"})

	require.NotNil(t, res.PendingAction)
	assert.Empty(t, res.PendingAction.Args, "malformed arguments decode to an empty map")
	assert.Zero(t, creates.Load())
}

func TestRunLocalizedFallback(t *testing.T) {
	reg := testRegistry(t, nil, nil)
	client := &scriptedClient{steps: []*llm.Completion{nil}}
	c := testCoordinator(t, client, reg, nil)

	res := c.Run(context.Background(), &Input{UserID: "u1", Message: "你好，我的日历上有什么？"})

	assert.Equal(t, "zh", res.Language)
	assert.Equal(t, "助手暂时不可用，请稍后再试。", res.Text)
}

func TestRunHistoryTrimmed(t *testing.T) {
	reg := testRegistry(t, nil, nil)
	client := &scriptedClient{steps: []*llm.Completion{{Content: "ok"}}}
	c := testCoordinator(t, client, reg, nil)

	history := make([]HistoryMessage, 50)
	for i := range history {
		history[i] = HistoryMessage{Role: "user", Content: "older"}
	}
	c.Run(context.Background(), &Input{UserID: "u1", Message: "latest question", History: history})

	require.Len(t, client.seen, 1)
	// The trailing limit of history entries plus the current user message.
	assert.Len(t, client.seen[0], DefaultHistoryLimit+1)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "kanban create task", summarize("kanban_create_task", nil))
	assert.Equal(t,
		"calendar create event (starts_at=2026-09-02T09:00:00Z, title=standup)",
		summarize("calendar_create_event", map[string]any{
			"title":     "standup",
			"starts_at": "2026-09-02T09:00:00Z",
		}))
}
