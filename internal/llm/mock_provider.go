package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// MockTurn is one scripted provider response, consumed in order by
// MockProvider.Stream.
type MockTurn struct {
	Text      string
	ToolCalls []ToolCall
	Err       error
	Delay     time.Duration
}

// MockProvider is a scriptable Provider for engine/runtime tests: callers
// queue up turns with AddTextResponse/AddToolCall/AddError/AddTurn, and each
// Stream call consumes the next queued turn in order.
type MockProvider struct {
	name         string
	capabilities Capabilities

	mu        sync.Mutex
	turns     []MockTurn
	turnIndex int

	// Requests records every request passed to Stream, for assertions.
	Requests []Request
}

// NewMockProvider creates a mock provider with tool calling enabled by
// default.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:         name,
		capabilities: Capabilities{ToolCalls: true},
	}
}

func (p *MockProvider) WithCapabilities(caps Capabilities) *MockProvider {
	p.capabilities = caps
	return p
}

// AddTextResponse queues a turn that streams text and finishes.
func (p *MockProvider) AddTextResponse(text string) *MockProvider {
	return p.AddTurn(MockTurn{Text: text})
}

// AddToolCall queues a turn that emits a single tool call with args marshaled
// to JSON.
func (p *MockProvider) AddToolCall(id, name string, args any) *MockProvider {
	raw, _ := json.Marshal(args)
	return p.AddTurn(MockTurn{ToolCalls: []ToolCall{{ID: id, Name: name, Arguments: raw}}})
}

// AddError queues a turn that emits an EventError.
func (p *MockProvider) AddError(err error) *MockProvider {
	return p.AddTurn(MockTurn{Err: err})
}

func (p *MockProvider) AddTurn(turn MockTurn) *MockProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turns = append(p.turns, turn)
	return p
}

// Reset clears recorded requests and rewinds to the first queued turn.
func (p *MockProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turnIndex = 0
	p.Requests = nil
}

// CurrentTurn returns the index of the next turn Stream will consume.
func (p *MockProvider) CurrentTurn() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.turnIndex
}

func (p *MockProvider) Name() string               { return p.name }
func (p *MockProvider) Credential() string         { return "mock" }
func (p *MockProvider) Capabilities() Capabilities { return p.capabilities }

func (p *MockProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	p.mu.Lock()
	p.Requests = append(p.Requests, req)
	if p.turnIndex >= len(p.turns) {
		p.mu.Unlock()
		return nil, fmt.Errorf("mock provider %q: no more turns configured", p.name)
	}
	turn := p.turns[p.turnIndex]
	p.turnIndex++
	p.mu.Unlock()

	events := make(chan Event, 16)
	go p.runTurn(ctx, turn, events)
	return &mockStream{ctx: ctx, events: events}, nil
}

func (p *MockProvider) runTurn(ctx context.Context, turn MockTurn, events chan<- Event) {
	defer close(events)

	if turn.Delay > 0 {
		select {
		case <-time.After(turn.Delay):
		case <-ctx.Done():
			return
		}
	}

	send := func(e Event) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if turn.Err != nil {
		send(Event{Type: EventError, Err: turn.Err})
		return
	}
	for _, chunk := range chunkText(turn.Text, 8) {
		if !send(Event{Type: EventTextDelta, Text: chunk}) {
			return
		}
	}
	for i := range turn.ToolCalls {
		call := turn.ToolCalls[i]
		if !send(Event{Type: EventToolCall, Tool: &call}) {
			return
		}
	}
	if turn.Text != "" || len(turn.ToolCalls) == 0 {
		if !send(Event{Type: EventUsage, Use: &Usage{InputTokens: 10, OutputTokens: 10}}) {
			return
		}
	}
	send(Event{Type: EventDone})
}

type mockStream struct {
	ctx    context.Context
	events <-chan Event
}

func (s *mockStream) Recv() (Event, error) {
	// Check cancellation first: once ctx is done, report that even if runTurn
	// has also since closed events, so callers never race between the two.
	if err := s.ctx.Err(); err != nil {
		return Event{}, err
	}
	select {
	case event, ok := <-s.events:
		if !ok {
			return Event{}, io.EOF
		}
		return event, nil
	case <-s.ctx.Done():
		return Event{}, s.ctx.Err()
	}
}

func (s *mockStream) Close() error { return nil }

// chunkText splits text into chunkSize-rune pieces, for simulating streamed
// text deltas from a single scripted response.
func chunkText(text string, chunkSize int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
