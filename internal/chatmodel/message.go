// Package chatmodel holds the per-tab conversation data model: messages,
// tool calls, and the App state that a single tab's runtime operates on.
package chatmodel

import (
	"sync/atomic"
	"time"

	"github.com/deepchat/deepchat/internal/llm"
)

// Message mirrors llm.Message but adds the bookkeeping the UI runtime
// needs: a stable sequence number for cache keys and an optional
// tool_call_id linking a tool-role message back to its originating call.
type Message struct {
	Role       llm.Role
	Parts      []llm.Part
	ToolCallID string
	CreatedAt  time.Time
	Sequence   int
}

// ToolCall is re-exported so callers building a broker request don't need
// to import internal/llm directly for this one type.
type ToolCall = llm.ToolCall

// TextContent concatenates every PartText in the message, the shape the
// render cache hashes to decide whether a cache entry is stale.
func (m Message) TextContent() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == llm.PartText {
			out += p.Text
		}
	}
	return out
}

// ToolCalls returns every tool_call part on the message, in order.
func (m Message) ToolCalls() []llm.ToolCall {
	var calls []llm.ToolCall
	for _, p := range m.Parts {
		if p.Type == llm.PartToolCall && p.ToolCall != nil {
			calls = append(calls, *p.ToolCall)
		}
	}
	return calls
}

// RequestHandle identifies an in-flight LLM turn and carries the shared
// cancel flag the Stop key sets. Grounded on original_source's
// ui/state.rs::RequestHandle.
type RequestHandle struct {
	ID     uint64
	Cancel *atomic.Bool
}

// Stop marks the handle as cancelled. Safe to call from any goroutine.
func (h *RequestHandle) Stop() {
	if h != nil && h.Cancel != nil {
		h.Cancel.Store(true)
	}
}

// Stopped reports whether Stop has been called.
func (h *RequestHandle) Stopped() bool {
	return h != nil && h.Cancel != nil && h.Cancel.Load()
}
