package runtime

import (
	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/llm"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/render/preheat"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/widget"
)

// HandlePendingCommandFn is supplied by the caller (normally
// (*Dispatcher).HandlePendingCommand bound to the loop's model/session
// state) so this file doesn't need to import internal/broker directly
// just to run one frame. Its bool return reports whether the command
// finished a suspended tool turn, signalling RunFrame to start a
// follow-up request via Continue.
type HandlePendingCommandFn func(cmd chatmodel.PendingCommand) bool

// SendFn starts a request for tab's current input content, returning the
// handle Machine uses to track it. Supplied by the caller (cmd/root.go's
// entrypoint, closing over the configured provider and request template)
// so internal/runtime doesn't need to import internal/config or build
// tool specs just to run one frame — mirrors HandlePendingCommandFn.
type SendFn func(tab *tabs.Tab, content string) *chatmodel.RequestHandle

// ToolCallFn dispatches one ToolCalls stream event's calls against tab
// (normally (*Dispatcher).HandleToolCalls), returning whether every call
// resolved synchronously — the signal RunFrame uses to start a follow-up
// request immediately via Continue, instead of waiting on an approval
// overlay to resolve through HandlePendingCommandFn.
type ToolCallFn func(tab *tabs.Tab, calls []llm.ToolCall) bool

// ContinueFn starts a follow-up request against tab's existing message
// history (normally runtime.StartContinue bound to the configured
// provider/request template), used once a suspended tool turn resolves.
type ContinueFn func(tab *tabs.Tab) *chatmodel.RequestHandle

// Loop owns the tab model and the widget tree root and drives the seven
// numbered steps of spec.md §4.8 every frame. It has no terminal I/O of
// its own; Root and Sources are injected so tests can run a whole frame
// against fakes.
type Loop struct {
	Model  *tabs.Model
	Root   widget.Widget
	Theme  render.Theme
	Width  int
	Height int
	Notice *Notice

	Pool *preheat.Pool

	// Send starts a request when InputBox marks a tab's PendingSend;
	// nil is valid for tests that never exercise sending.
	Send SendFn

	// ToolCalls dispatches a ToolCalls stream event's calls; nil is valid
	// for tests that never exercise tool calling.
	ToolCalls ToolCallFn

	// Continue starts a follow-up request once a tool turn resolves
	// (synchronously via ToolCalls, or later via a pending command); nil
	// is valid for tests that never exercise tool calling.
	Continue ContinueFn

	// LastFrame holds the most recent Render output, for a terminal
	// driver (cmd/root.go's bubbletea bridge) to paint; RunFrame only
	// repopulates it when l.dirty, so a caller polling it between
	// frames sees the previous frame unchanged rather than a blank one.
	LastFrame widget.Frame

	layout widget.FrameLayout
	update widget.FrameUpdate

	quit  bool
	dirty bool
}

// Quit reports whether the last frame requested the loop to stop
// (global quit key, widget.Event.IsGlobal).
func (l *Loop) Quit() bool { return l.quit }

// RunFrame executes one iteration: collect, decide dirtiness, layout,
// update, render (conditionally), dispatch every input event in the
// batch in arrival order (not one event per frame), enqueue preheat
// work. It returns whether the frame redrew the terminal.
func (l *Loop) RunFrame(src Sources, pending HandlePendingCommandFn) bool {
	var batch EventBatch
	timeout := ComputeTimeout(l.Model, l.Notice)
	outcome := WaitForEvents(src, timeout, &batch)
	if outcome.Disconnected {
		l.quit = true
		return false
	}

	active := l.Model.Active()
	activeID := -1
	if active != nil {
		activeID = active.ID()
	}

	l.dirty = InputBatchDirty(batch.Input) ||
		PreheatTouchesActiveTab(batch.Preheat, activeID) ||
		len(batch.LLM) > 0 ||
		len(batch.Terminal) > 0

	if outcome.Ticked && active != nil && active.App.Busy {
		msg := active.App.BusySpinner.Tick()
		active.App.BusySpinner, _ = active.App.BusySpinner.Update(msg)
		l.dirty = true
	}

	layoutCtx := widget.LayoutCtx{Width: l.Width}
	rect := widget.Rect{Width: l.Width, Height: l.Height}
	l.layout = widget.FrameLayout{}
	l.Root.Measure(&layoutCtx, widget.Constraints{Max: widget.Size{Width: l.Width, Height: l.Height}})
	l.Root.Place(&layoutCtx, &l.layout, rect)

	l.applyPreheatResults(batch.Preheat)
	l.applyStreamEvents(batch.LLM)
	for _, ev := range batch.Terminal {
		l.applyTerminalChunk(ev)
	}

	if active != nil && len(active.App.PendingToolCalls) > 0 && l.ToolCalls != nil {
		calls := active.App.PendingToolCalls
		active.App.PendingToolCalls = nil
		if l.ToolCalls(active, calls) && l.Continue != nil {
			active.App.ActiveRequest = l.Continue(active)
		}
		l.dirty = true
	}

	if active != nil && active.App.PendingCmd != nil && pending != nil {
		cmd := active.App.PendingCmd
		active.App.PendingCmd = nil
		if pending(cmd) && l.Continue != nil {
			active.App.ActiveRequest = l.Continue(active)
		}
		l.dirty = true
	}

	if active != nil && active.App.PendingSend && l.Send != nil {
		content := active.App.InputValue
		active.App.InputValue = ""
		active.App.PendingSend = false
		active.App.ActiveRequest = l.Send(active, content)
		l.dirty = true
	}

	l.update = widget.FrameUpdate{}
	updateCtx := widget.UpdateCtx{}
	l.Root.Update(&updateCtx, &l.layout, &l.update)
	if l.update.Dirty {
		l.dirty = true
	}

	redrew := false
	if l.dirty {
		l.LastFrame = widget.Frame{}
		l.Root.Render(&l.LastFrame, &l.layout, &l.update, rect)
		redrew = true
	}

	eventCtx := widget.EventCtx{}
	for _, ev := range batch.Input {
		res := l.Root.Event(&eventCtx, ev, &l.layout, &l.update, rect)
		if res.Dirty {
			l.dirty = true
		}
		if ev.Kind == widget.EventKey && ev.Key == "ctrl+q" {
			l.quit = true
		}
	}

	if l.Pool != nil {
		l.Pool.EnqueueForInactiveTabs(tabViews(l.Model), activeID, l.Width, l.Theme)
	}

	return redrew
}

func tabViews(m *tabs.Model) []preheat.TabView {
	out := make([]preheat.TabView, len(m.Tabs))
	for i, t := range m.Tabs {
		out[i] = t
	}
	return out
}

// applyPreheatResults writes completed background render work into the
// owning tab's cache, discarding results whose tab or message no longer
// exists (spec.md §4.2).
func (l *Loop) applyPreheatResults(results []preheat.Result) {
	for _, r := range results {
		for _, t := range l.Model.Tabs {
			if t.ID() != r.TabID {
				continue
			}
			if r.Index < 0 || r.Index >= len(t.App.Messages) {
				continue
			}
			t.Cache.SetEntry(r.Index, r.Entry)
		}
	}
}

// applyStreamEvents routes each tagged stream event to its owning tab's
// Machine, which filters stale requests internally (spec.md §4.6).
func (l *Loop) applyStreamEvents(events []TaggedStreamEvent) {
	for _, tagged := range events {
		for _, t := range l.Model.Tabs {
			if t.ID() != tagged.TabID {
				continue
			}
			if t.Machine.Apply(tagged.Event) {
				l.dirty = true
			}
		}
	}
}

func (l *Loop) applyTerminalChunk(ev TerminalChildEvent) {
	// The chunk's text is not stored or shown anywhere; a terminal chunk
	// only marks the frame dirty, which the batch-level dirty check above
	// already did.
	_ = ev
}
