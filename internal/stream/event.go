// Package stream implements the per-tab streaming state machine (C6):
// the five event kinds spec.md §4.6 names, request/cancel bookkeeping,
// and the request-id filter that guards against races between a
// cancelled request's trailing events and a freshly started one.
// Grounded on the teacher's internal/llm.Engine callback wiring and
// internal/ui.StreamEvent taxonomy.
package stream

import "github.com/deepchat/deepchat/internal/llm"

// Kind enumerates the five streaming events spec.md §4.6 defines.
type Kind int

const (
	Chunk Kind = iota
	ReasoningChunk
	Error
	Done
	ToolCalls
)

// Event is one item delivered on a tab's stream channel. RequestID must
// be checked against the tab's ActiveRequest.ID before applying an
// event — a mismatch means this event belongs to a superseded or
// cancelled request and must be silently dropped (spec.md §4.6).
type Event struct {
	RequestID uint64
	Kind      Kind

	Text  string // Chunk / ReasoningChunk
	Err   error  // Error
	Usage llm.Usage
	Calls []llm.ToolCall // ToolCalls
}
