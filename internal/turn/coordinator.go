package turn

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lifedesk/lifedesk/internal/actions"
	"github.com/lifedesk/lifedesk/internal/intent"
	"github.com/lifedesk/lifedesk/internal/language"
	"github.com/lifedesk/lifedesk/internal/llm"
	"github.com/lifedesk/lifedesk/internal/locale"
	"github.com/lifedesk/lifedesk/internal/modules"
	"github.com/lifedesk/lifedesk/internal/snapshot"
	"github.com/lifedesk/lifedesk/internal/tools"
)

// DefaultMaxSteps bounds the completion loop per turn.
const DefaultMaxSteps = 4

// DefaultHistoryLimit caps how many prior transcript entries a turn carries.
const DefaultHistoryLimit = 20

// CompletionClient is the completion surface the coordinator depends on.
// *llm.Client satisfies it; tests substitute a scripted fake.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt string, messages []llm.Message, tools []llm.ToolSchema) *llm.Completion
}

// Coordinator runs one turn end to end. It is safe for concurrent use.
type Coordinator struct {
	classifier *intent.Classifier
	detector   *language.Heuristic
	registry   *tools.Registry
	store      actions.Store
	client     CompletionClient
	snapshots  *snapshot.Builder
	sync       *modules.Synchronizer
	maxSteps   int
	histLimit  int
	log        zerolog.Logger
}

// Config wires the coordinator's collaborators.
type Config struct {
	Registry     *tools.Registry
	Store        actions.Store
	Client       CompletionClient
	Snapshots    *snapshot.Builder
	Sync         *modules.Synchronizer
	MaxSteps     int
	HistoryLimit int
	Log          zerolog.Logger
}

// NewCoordinator creates a coordinator from the given collaborators.
func NewCoordinator(cfg Config) *Coordinator {
	steps := cfg.MaxSteps
	if steps <= 0 {
		steps = DefaultMaxSteps
	}
	hist := cfg.HistoryLimit
	if hist <= 0 {
		hist = DefaultHistoryLimit
	}
	return &Coordinator{
		classifier: intent.NewClassifier(),
		detector:   language.NewDetector(),
		registry:   cfg.Registry,
		store:      cfg.Store,
		client:     cfg.Client,
		snapshots:  cfg.Snapshots,
		sync:       cfg.Sync,
		maxSteps:   steps,
		histLimit:  hist,
		log:        cfg.Log,
	}
}

// Run executes one turn. It never returns an error: every failure mode
// degrades into a localized Result.
func (c *Coordinator) Run(ctx context.Context, in *Input) *Result {
	sample := in.Message
	if sample == "" && len(in.History) > 0 {
		sample = in.History[len(in.History)-1].Content
	}
	lang := c.detector.Detect(sample)

	if in.Decision != nil {
		return c.resolveDecision(ctx, in, lang)
	}
	return c.converse(ctx, in, lang)
}

// resolveDecision consumes a pending proposal: executes it on approval,
// discards it on rejection. The Remove outcome decides the race when two
// decisions target the same id.
func (c *Coordinator) resolveDecision(ctx context.Context, in *Input, lang string) *Result {
	res := &Result{
		Language:    lang,
		Intent:      intent.Result{Type: intent.TypeAction, Confidence: 1},
		UsedModules: []string{},
	}

	p, err := c.store.Get(ctx, in.Decision.ActionID, in.UserID)
	if err != nil {
		c.log.Error().Err(err).Str("action_id", in.Decision.ActionID).Msg("pending action lookup failed")
	}
	if p == nil {
		res.Text = locale.T(lang, locale.MsgActionNotFound)
		return res
	}

	removed, err := c.store.Remove(ctx, p.ID)
	if err != nil {
		c.log.Error().Err(err).Str("action_id", p.ID).Msg("pending action removal failed")
	}
	if !removed {
		// A concurrent decision consumed it first.
		res.Text = locale.T(lang, locale.MsgActionNotFound)
		return res
	}

	if !in.Decision.Approved {
		res.Text = locale.T(lang, locale.MsgCanceled)
		return res
	}

	d := c.registry.Lookup(p.ToolName)
	module := ""
	if d != nil {
		module = d.Module
		res.UsedModules = []string{module}
	}

	out := c.registry.Execute(ctx, &tools.Call{
		ID:     p.ID,
		Name:   p.ToolName,
		Args:   p.Args,
		UserID: in.UserID,
	})
	if !out.OK {
		c.log.Warn().Str("tool", p.ToolName).Str("error", out.Error).Msg("approved action failed")
		res.Text = locale.T(lang, locale.MsgActionFailed, p.Summary)
		return res
	}

	c.sync.AfterApproved(ctx, in.UserID, p.ToolName, out.Data)
	res.Text = locale.T(lang, locale.MsgActionDone, p.Summary)
	return res
}

// converse runs the message path: classify, shortcut navigation, gather
// workspace context, then iterate completions until the provider answers
// in plain text, proposes a mutation, or the step budget runs out.
func (c *Coordinator) converse(ctx context.Context, in *Input, lang string) *Result {
	cls := c.classifier.Classify(in.Message)
	res := &Result{
		Language:    lang,
		Intent:      cls,
		UsedModules: []string{},
	}

	if cls.Type == intent.TypeNavigate {
		res.NavigateTo = cls.NavigateTo
		return res
	}

	selected := modules.Select(in.Message)
	snap := c.snapshots.Build(ctx, in.UserID, in.Message, selected)
	res.UsedModules = snap.Modules

	system := systemPrompt(lang, in.Settings, in.Memory)
	messages := transcript(in, snap.Fragment, c.histLimit)
	catalog := c.registry.Catalog(selected)

	used := map[string]bool{}

	for step := 0; step < c.maxSteps; step++ {
		completion := c.client.Complete(ctx, system, messages, catalog)
		if completion == nil {
			res.Text = locale.T(lang, locale.MsgUnavailable)
			return res
		}

		if len(completion.ToolCalls) == 0 {
			if strings.TrimSpace(completion.Content) == "" {
				res.Text = locale.T(lang, locale.MsgEmptyAnswer)
			} else {
				res.Text = completion.Content
			}
			res.UsedModules = mergeModules(snap.Modules, used)
			return res
		}

		// The whole batch is dropped if any call in it mutates; read-only
		// siblings are not executed either, so an approval replays nothing.
		for _, tc := range completion.ToolCalls {
			if !c.registry.IsMutating(tc.Name) {
				continue
			}
			proposal, perr := c.propose(ctx, in, lang, tc)
			if perr != nil {
				c.log.Error().Err(perr).Str("tool", tc.Name).Msg("pending action create failed")
				res.Text = locale.T(lang, locale.MsgUnavailable)
				return res
			}
			res.Text = locale.T(lang, locale.MsgProposal, proposal.Summary)
			res.PendingAction = proposal
			res.Intent.RequiresConfirmation = true
			res.UsedModules = mergeModules(snap.Modules, used)
			return res
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		calls := make([]*tools.Call, len(completion.ToolCalls))
		for i, tc := range completion.ToolCalls {
			calls[i] = &tools.Call{
				ID:     tc.ID,
				Name:   tc.Name,
				Args:   parseArgs(tc.Arguments),
				UserID: in.UserID,
			}
			if d := c.registry.Lookup(tc.Name); d != nil {
				used[d.Module] = true
			}
		}

		results := c.registry.ExecuteParallel(ctx, calls)
		for i, r := range results {
			messages = append(messages, llm.Message{
				Role:       "tool",
				Name:       calls[i].Name,
				ToolCallID: r.CallID,
				Content:    encodeResult(r),
			})
		}
	}

	res.Text = locale.T(lang, locale.MsgTooBroad)
	res.UsedModules = mergeModules(snap.Modules, used)
	return res
}

// propose stores a deferred mutating call and returns the proposal.
func (c *Coordinator) propose(ctx context.Context, in *Input, lang string, tc llm.ToolCall) (*actions.Proposal, error) {
	args := parseArgs(tc.Arguments)
	return c.store.Create(ctx, in.UserID, tc.Name, args, summarize(tc.Name, args))
}

// transcript assembles the provider message list: trimmed history, then
// the user message with the workspace context fragment attached.
func transcript(in *Input, fragment string, limit int) []llm.Message {
	history := in.History
	if len(history) > limit {
		history = history[len(history)-limit:]
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		role := h.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: h.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: userContent(in.Message, fragment)})
	return messages
}

// parseArgs decodes a provider-produced arguments string. Malformed JSON
// yields an empty map rather than failing the turn.
func parseArgs(raw string) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

// encodeResult renders a tool result for the transcript.
func encodeResult(r tools.Result) string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"ok":false,"error":"unencodable result"}`
	}
	return string(b)
}

// summarize renders a short human-readable description of a deferred call
// for the confirmation prompt.
func summarize(toolName string, args map[string]any) string {
	verb := strings.ReplaceAll(toolName, "_", " ")
	if len(args) == 0 {
		return verb
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return verb + " (" + strings.Join(parts, ", ") + ")"
}

// mergeModules unions the snapshot's selected modules with the modules of
// tools the provider actually called, preserving selection order first.
func mergeModules(selected []string, used map[string]bool) []string {
	out := make([]string, 0, len(selected)+len(used))
	seen := map[string]bool{}
	for _, m := range selected {
		out = append(out, m)
		seen[m] = true
	}
	extra := make([]string, 0, len(used))
	for m := range used {
		if m != "" && !seen[m] {
			extra = append(extra, m)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
