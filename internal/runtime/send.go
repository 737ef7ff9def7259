package runtime

import (
	"context"
	"time"

	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/llm"
	"github.com/deepchat/deepchat/internal/stream"
	"github.com/deepchat/deepchat/internal/tabs"
)

// StartSend appends content as a user message on tab, begins a new
// request on tab's Machine, and spawns the one-goroutine-per-in-flight-
// request worker spec.md §5 requires. req.Messages is overwritten with
// the tab's full message history (the caller only needs to set Model,
// Tools, ToolChoice and the other per-turn knobs); tool specs and system
// prompt handling stay the caller's concern since they come from
// internal/broker.ToolSpecs and internal/config, which cmd/root.go
// wires in.
//
// Every stream.Event the request goroutine publishes is relayed onto out
// tagged with the tab's ID, since RunFrame's Collect step multiplexes
// every tab's in-flight request onto a single channel (spec.md §5).
func StartSend(ctx context.Context, tab *tabs.Tab, content string, provider llm.Provider, req llm.Request, out chan<- TaggedStreamEvent) *chatmodel.RequestHandle {
	tab.App.Messages = append(tab.App.Messages, chatmodel.Message{
		Role:      llm.RoleUser,
		Parts:     []llm.Part{{Type: llm.PartText, Text: content}},
		CreatedAt: time.Now(),
	})
	tab.MarkDirty(len(tab.App.Messages) - 1)

	handle := tab.Machine.Start()
	req.Messages = toLLMMessages(tab.App.Messages)

	tagged := make(chan stream.Event, 64)
	go func() {
		defer close(tagged)
		stream.RunRequest(ctx, provider, req, handle, tagged)
	}()
	go relayTagged(tab.ID(), tagged, out)

	return handle
}

// StartContinue begins a follow-up request without appending a new user
// message: the conversation already ends in one or more tool-role result
// messages pusherFor/Dispatcher.HandleToolCalls appended, and the model
// just needs to see them (spec.md §4.7's tool-call turn continuation).
func StartContinue(ctx context.Context, tab *tabs.Tab, provider llm.Provider, req llm.Request, out chan<- TaggedStreamEvent) *chatmodel.RequestHandle {
	handle := tab.Machine.Start()
	req.Messages = toLLMMessages(tab.App.Messages)

	tagged := make(chan stream.Event, 64)
	go func() {
		defer close(tagged)
		stream.RunRequest(ctx, provider, req, handle, tagged)
	}()
	go relayTagged(tab.ID(), tagged, out)

	return handle
}

// relayTagged forwards one request goroutine's untagged stream.Events
// onto the shared multiplexed channel, attaching the owning tab's ID so
// the UI goroutine can route it back even while several tabs stream
// concurrently.
func relayTagged(tabID int, in <-chan stream.Event, out chan<- TaggedStreamEvent) {
	for ev := range in {
		out <- TaggedStreamEvent{TabID: tabID, Event: ev}
	}
}

// toLLMMessages strips the chatmodel bookkeeping fields (Sequence,
// CreatedAt) down to the plain llm.Message shape providers consume,
// folding the tool-role ToolCallID back into a ToolResult part since
// llm.Message carries no top-level id field and pusherFor.PushToolMessage
// stores it separately for the chat widget's own rendering.
func toLLMMessages(messages []chatmodel.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		if m.Role == llm.RoleTool && m.ToolCallID != "" {
			out[i] = llm.Message{
				Role: m.Role,
				Parts: []llm.Part{{
					Type:       llm.PartToolResult,
					ToolResult: &llm.ToolResult{ID: m.ToolCallID, Content: m.TextContent()},
				}},
			}
			continue
		}
		out[i] = llm.Message{Role: m.Role, Parts: m.Parts}
	}
	return out
}
