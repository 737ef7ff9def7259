package stream

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/llm"
)

// Machine drives one tab's in-flight request. It owns the channel the
// request goroutine publishes Events on and the RequestHandle the Stop
// key cancels.
type Machine struct {
	app *chatmodel.App
	ch  chan Event
}

// New wraps app, giving it a streaming machine. One Machine per tab.
func New(app *chatmodel.App) *Machine {
	return &Machine{app: app, ch: make(chan Event, 64)}
}

// Channel returns the event channel the runtime loop's Collect step
// drains every frame.
func (m *Machine) Channel() <-chan Event { return m.ch }

// Start begins a new request: allocates a fresh request id and cancel
// flag, marks the tab busy, and returns the handle the caller's request
// goroutine must tag every published Event with.
func (m *Machine) Start() *chatmodel.RequestHandle {
	m.app.NextRequestID++
	handle := &chatmodel.RequestHandle{ID: m.app.NextRequestID, Cancel: &atomic.Bool{}}
	m.app.ActiveRequest = handle
	m.app.Busy = true
	m.app.PendingAssistant = len(m.app.Messages)
	m.app.StreamBuffer = ""
	m.app.PendingReasoning = ""
	return handle
}

// Publish is called by the request goroutine; it never blocks past the
// channel's buffer (spec.md §5: the request goroutine must never be
// blocked indefinitely by a slow UI goroutine, so Publish drops the
// event rather than stalling the request once the buffer is full). A
// dropped event is not resent: a dropped Chunk's text is missing from
// StreamBuffer, and Done carries no text that would restore it.
func Publish(ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}

// Apply processes one Event against the tab's App, first filtering on
// request id (spec.md §4.6's race guard) and returns whether the tab's
// render state became dirty.
func (m *Machine) Apply(ev Event) (dirty bool) {
	if m.app.ActiveRequest == nil || ev.RequestID != m.app.ActiveRequest.ID {
		return false
	}
	switch ev.Kind {
	case Chunk:
		m.app.StreamBuffer += ev.Text
		return true
	case ReasoningChunk:
		m.app.PendingReasoning += ev.Text
		return true
	case Error:
		m.finish()
		return true
	case Done:
		m.finish()
		return true
	case ToolCalls:
		m.app.Messages = append(m.app.Messages, toolCallMessage(ev.Calls))
		m.app.PendingToolCalls = ev.Calls
		// Leave Busy/ActiveRequest set: the broker now owns the turn
		// until every tool call resolves and a follow-up request starts.
		return true
	}
	return false
}

// toolCallMessage wraps a ToolCalls event's calls in the assistant
// message the chat widget renders as the model's tool-call turn, one
// PartToolCall per call.
func toolCallMessage(calls []llm.ToolCall) chatmodel.Message {
	parts := make([]llm.Part, len(calls))
	for i, c := range calls {
		call := c
		parts[i] = llm.Part{Type: llm.PartToolCall, ToolCall: &call}
	}
	return chatmodel.Message{Role: llm.RoleAssistant, Parts: parts, CreatedAt: time.Now()}
}

func (m *Machine) finish() {
	m.app.Busy = false
	m.app.ActiveRequest = nil
	m.app.PendingAssistant = -1
}

// Stop requests cancellation of the active request, if any (F6 key).
func (m *Machine) Stop() {
	if m.app.ActiveRequest != nil {
		m.app.ActiveRequest.Stop()
	}
}

// RunRequest drives one blocking provider.Stream call in its own
// goroutine, translating llm.Event into stream.Event and checking the
// handle's cancel flag between chunks — the one place SPEC_FULL departs
// from a context.CancelFunc in favor of the spec's explicit
// shared-atomic-bool model, while still deriving a context.Context for
// the underlying HTTP call so provider code needs no changes.
func RunRequest(ctx context.Context, provider llm.Provider, req llm.Request, handle *chatmodel.RequestHandle, ch chan<- Event) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := provider.Stream(cctx, req)
	if err != nil {
		Publish(ch, Event{RequestID: handle.ID, Kind: Error, Err: err})
		return
	}
	defer stream.Close()

	var calls []llm.ToolCall
	var usage llm.Usage
	for {
		if handle.Stopped() {
			cancel()
			Publish(ch, Event{RequestID: handle.ID, Kind: Done})
			return
		}
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(calls) > 0 {
					Publish(ch, Event{RequestID: handle.ID, Kind: ToolCalls, Calls: calls, Usage: usage})
				} else {
					Publish(ch, Event{RequestID: handle.ID, Kind: Done, Usage: usage})
				}
				return
			}
			Publish(ch, Event{RequestID: handle.ID, Kind: Error, Err: err})
			return
		}
		switch ev.Type {
		case llm.EventTextDelta:
			Publish(ch, Event{RequestID: handle.ID, Kind: Chunk, Text: ev.Text})
		case llm.EventToolCall:
			if ev.Tool != nil {
				calls = append(calls, *ev.Tool)
			}
		case llm.EventUsage:
			if ev.Use != nil {
				usage = *ev.Use
			}
		case llm.EventDone:
			if len(calls) > 0 {
				Publish(ch, Event{RequestID: handle.ID, Kind: ToolCalls, Calls: calls, Usage: usage})
			} else {
				Publish(ch, Event{RequestID: handle.ID, Kind: Done, Usage: usage})
			}
			return
		case llm.EventError:
			Publish(ch, Event{RequestID: handle.ID, Kind: Error, Err: ev.Err})
			return
		}
	}
}
