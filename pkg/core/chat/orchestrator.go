// Package chat drives conversation turns: it issues model streams,
// splits them into text and function-call signals, commits completed
// turns to the history log, and keeps a rolling summary of older turns.
package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/segment"
	"github.com/parley-ai/parley/pkg/core/types"
)

// State of the current turn.
type State string

const (
	StateIdle            State = "idle"
	StateStreaming       State = "streaming"
	StateCompleted       State = "completed"
	StateFunctionPending State = "function-pending"
	StateErrored         State = "errored"
)

// SentinelErrored is the Resubmit target meaning "the error state":
// replay from the history preserved up to the error.
const SentinelErrored = "-1"

// Settings is a per-operation snapshot of externally owned session
// configuration. The orchestrator reads one snapshot per turn and never
// caches it across turns.
type Settings struct {
	Model        string
	SummaryModel string
	System       string
	Generation   types.GenerationConfig
	Auth         types.Auth
	TalkMode     string // "text" or "voice"
	Locale       string
	MaxHistory   int // eligible text-message count that triggers summarization
	Tools        []types.ToolDeclaration
}

// SettingsSource supplies settings snapshots.
type SettingsSource interface {
	Snapshot() Settings
}

// Hooks receive turn events. Nil hooks are skipped, except
// OnFunctionCalls, which must be installed for tool-enabled turns.
type Hooks struct {
	// OnTurnStart fires when a turn begins streaming.
	OnTurnStart func()
	// OnPartial receives the cumulative turn text after each chunk.
	OnPartial func(text string)
	// OnStatement receives each completed speakable statement.
	OnStatement func(text string)
	// OnMessage receives the committed model message for a text turn.
	OnMessage func(msg types.Message)
	// OnFunctionCalls receives the ordered call batch of a tool turn.
	// Its error is surfaced through the normal error path.
	OnFunctionCalls func(ctx context.Context, calls []types.FunctionCall) error
	// OnError receives the labeled error when a turn fails.
	OnError func(err *core.Error)
}

// Orchestrator owns the conversation log, the summary, and the turn
// state machine. All mutation goes through its methods.
type Orchestrator struct {
	provider   core.Provider
	settings   SettingsSource
	hooks      Hooks
	summarizer *Summarizer

	mu      sync.Mutex
	log     historyLog
	summary *types.Summary
	state   State

	summarizing atomic.Bool
}

// New creates an orchestrator with an empty history.
func New(provider core.Provider, settings SettingsSource, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		settings: settings,
		hooks:    hooks,
		summary:  types.NewSummary(),
		state:    StateIdle,
	}
}

// SetSummarizer installs the history summarizer. Without one, history
// grows unbounded.
func (o *Orchestrator) SetSummarizer(s *Summarizer) {
	o.summarizer = s
}

// State returns the current turn state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// History returns a copy of the conversation log.
func (o *Orchestrator) History() []types.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.log.snapshot()
}

// Summary returns a copy of the current rolling summary.
func (o *Orchestrator) Summary() types.Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make(map[string]struct{}, len(o.summary.IDs))
	for id := range o.summary.IDs {
		ids[id] = struct{}{}
	}
	return types.Summary{IDs: ids, Content: o.summary.Content}
}

// Append adds a message to the log, assigning an id when absent, and
// returns the stored message. Used directly by the function-call
// dispatcher for call records, responses, and placeholders.
func (o *Orchestrator) Append(m types.Message) types.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.log.append(m)
}

// Submit appends a user message and runs the next turn.
func (o *Orchestrator) Submit(ctx context.Context, m types.Message) error {
	m.Role = types.RoleUser
	o.Append(m)
	return o.RunTurn(ctx)
}

// Resubmit regenerates from a message id. A model-turn target is
// discarded; a user-turn target keeps the user message and discards the
// message immediately following it. The sentinel SentinelErrored
// replays from the current (error-preserved) history unchanged.
func (o *Orchestrator) Resubmit(ctx context.Context, id string) error {
	if id != SentinelErrored {
		o.mu.Lock()
		if i := o.log.indexOf(id); i >= 0 {
			switch o.log.msgs[i].Role {
			case types.RoleModel:
				o.log.removeAt(i)
			case types.RoleUser:
				if i+1 < len(o.log.msgs) {
					o.log.removeAt(i + 1)
				}
			}
		}
		o.mu.Unlock()
	}
	return o.RunTurn(ctx)
}

// RunTurn issues one model turn from the current history and drives it
// to completion: text turns are segmented and committed, tool turns are
// handed to the function-call hook.
func (o *Orchestrator) RunTurn(ctx context.Context) error {
	cfg := o.settings.Snapshot()
	if !cfg.Auth.Valid() {
		return o.fail(core.NewAuthenticationError("exactly one of api key or access token must be set"))
	}

	req := o.buildRequest(cfg)

	o.setState(StateStreaming)
	if o.hooks.OnTurnStart != nil {
		o.hooks.OnTurnStart()
	}

	stream, err := o.provider.StreamTurn(ctx, req)
	if err != nil {
		return o.fail(err)
	}
	defer stream.Close()

	var final string
	seg := segment.New(cfg.Locale, segment.Hooks{
		OnPartial:   o.hooks.OnPartial,
		OnStatement: o.hooks.OnStatement,
		OnFinish:    func(full string) { final = full },
	})

	var calls []types.FunctionCall
	for {
		chunk, err := stream.Next()
		if chunk != nil {
			switch c := chunk.(type) {
			case types.TextChunk:
				seg.FeedText(c.Text)
			case types.FunctionCallChunk:
				// Function-call signals bypass the text channel entirely.
				calls = append(calls, c.Calls...)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return o.fail(err)
		}
	}

	if len(calls) > 0 {
		o.setState(StateFunctionPending)
		if o.hooks.OnFunctionCalls == nil {
			return o.fail(core.NewDispatchError("model requested a function call but no dispatcher is installed"))
		}
		if err := o.hooks.OnFunctionCalls(ctx, calls); err != nil {
			return o.fail(err)
		}
		return nil
	}

	seg.Finish()
	committed := o.commit(final)
	o.setState(StateCompleted)
	if o.hooks.OnMessage != nil {
		o.hooks.OnMessage(committed)
	}
	o.maybeSummarize(cfg)
	return nil
}

// buildRequest assembles the outgoing request: the summary is prepended
// as condensed context, already-summarized messages are filtered out,
// and a trailing placeholder slot is excluded.
func (o *Orchestrator) buildRequest(cfg Settings) *types.TurnRequest {
	o.mu.Lock()
	defer o.mu.Unlock()

	var msgs []types.Message
	if o.summary.Content != "" {
		msgs = append(msgs, types.Message{
			Role:  types.RoleUser,
			Parts: []types.Part{types.TextPart("Summary of the conversation so far:\n" + o.summary.Content)},
		})
	}
	for i := range o.log.msgs {
		m := o.log.msgs[i]
		if o.summary.Has(m.ID) {
			continue
		}
		if i == len(o.log.msgs)-1 && m.IsPlaceholder() {
			continue
		}
		msgs = append(msgs, m)
	}

	return &types.TurnRequest{
		Model:      cfg.Model,
		Messages:   msgs,
		System:     cfg.System,
		Generation: cfg.Generation,
		Tools:      cfg.Tools,
		Auth:       cfg.Auth,
	}
}

// commit stores the assembled turn text: into the trailing placeholder
// slot when a dispatcher left one, otherwise as a new model message.
func (o *Orchestrator) commit(text string) types.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if m, ok := o.log.fillTrailingPlaceholder(text); ok {
		return m
	}
	return o.log.append(types.Message{
		Role:  types.RoleModel,
		Parts: []types.Part{types.TextPart(text)},
	})
}

// fail rolls back the incomplete model turn, records the error state,
// and surfaces a labeled error. Turns are never auto-retried; the
// caller regenerates via Resubmit(SentinelErrored).
func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.log.popTrailingPlaceholder()
	o.state = StateErrored
	o.mu.Unlock()

	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		coreErr = core.NewStreamError(err.Error(), 0)
	}
	if o.hooks.OnError != nil {
		o.hooks.OnError(coreErr)
	}
	return coreErr
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// maybeSummarize starts an asynchronous summarization pass when the
// eligible text-message count exceeds the configured threshold. The
// in-flight guard keeps one pass per threshold crossing.
func (o *Orchestrator) maybeSummarize(cfg Settings) {
	if o.summarizer == nil || cfg.MaxHistory <= 0 {
		return
	}

	o.mu.Lock()
	eligible := 0
	for i := range o.log.msgs {
		m := o.log.msgs[i]
		if m.IsTextBearing() && !o.summary.Has(m.ID) {
			eligible++
		}
	}
	msgs := o.log.snapshot()
	o.mu.Unlock()

	if eligible <= cfg.MaxHistory {
		return
	}
	if !o.summarizing.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer o.summarizing.Store(false)
		ids, content, err := o.summarizer.Summarize(context.Background(), msgs, o.Summary(), cfg.SummaryModel, cfg.Auth)
		if err != nil {
			return // summarization is best-effort; next crossing retries
		}
		o.mu.Lock()
		o.summary.Fold(ids, content)
		o.mu.Unlock()
	}()
}
