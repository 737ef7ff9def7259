package chatmodel

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/deepchat/deepchat/internal/llm"
)

// PendingCommand is produced by a widget's Update/Event pass and consumed
// by the runtime loop's pending-command dispatch (spec.md §4.8 step 4).
// Concrete commands live in internal/broker (code exec, file patch,
// question review) and in this package (SessionCommand, TabCommand);
// App holds one through this marker interface without importing
// internal/broker (avoiding an import cycle).
type PendingCommand interface {
	// Kind is a short stable tag used for logging and tests.
	Kind() string
}

// SessionCommand is a pending command concerning the persisted session
// file rather than an in-tab action (open/save), ported from
// original_source's PendingCommand::{OpenConversation,...} branch
// handled by runtime_loop_helpers/pending/session.rs. Defined here
// rather than internal/runtime so a widget's slash-command parser
// (internal/widget) can construct one without importing the package
// that drives it.
type SessionCommand struct {
	Action string // "open" | "save"
	Path   string
}

func (SessionCommand) Kind() string { return "session" }

// TabCommand is a catch-all for tab/category lifecycle requests (new
// tab, new category, close tab, ...), ported from
// runtime_loop_helpers/pending/tab.rs's handle_tab_command.
type TabCommand struct {
	Action   string // "new_tab" | "new_category" | "close_tab" | "close_others" | "close_all"
	Category string
	Index    int
}

func (TabCommand) Kind() string { return "tab" }

// Focus identifies which widget currently owns key input within a tab.
type Focus int

const (
	FocusChat Focus = iota
	FocusInput
)

// App is the per-tab conversation and runtime state. Field names and
// shapes are a direct port of original_source's ui/state.rs::App,
// generalized with the multi-request-in-flight bookkeeping spec.md §3
// requires.
type App struct {
	Messages []Message

	InputValue      string
	InputViewTopRow int

	Scroll SelectionLike // set by internal/view; kept generic here

	Follow bool
	Focus  Focus

	Busy          bool
	BusySince     time.Time
	BusySpinner   spinner.Model
	PendingSend   bool
	PendingCmd    PendingCommand
	ActiveRequest *RequestHandle
	NextRequestID uint64

	// PendingToolCalls holds the tool calls a just-applied ToolCalls
	// stream event carried, until the runtime loop's RunFrame drains them
	// into Dispatcher.HandleToolCalls (spec.md §4.7).
	PendingToolCalls []llm.ToolCall

	PendingAssistant int // index of the in-progress assistant message, -1 if none
	PendingReasoning string
	StreamBuffer     string

	// AssistantStats holds small per-message footer strings (token
	// counts, elapsed time) keyed by message index, matching the
	// original's BTreeMap<usize, String> exactly in semantics: sparse,
	// ordered-iteration only matters for deterministic test output, so a
	// Go map is sufficient here.
	AssistantStats map[int]string

	ScrollbarDragging bool
	ChatSelecting     bool
	ChatSelection     [2]int // [start,end] message-relative rune offsets; end==-1 when empty
	InputSelecting    bool

	ModelKey  string
	PromptKey string

	// DirtyIndices is not read or written by any package; the preheat
	// pool drains tabs.Tab's own dirty list (Tab.MarkDirty /
	// Tab.DrainDirtyIndices) instead (spec.md §4.2).
	DirtyIndices []int

	// CacheShift records a pending re-index of cache entries after a
	// message insert/remove at a position other than append; nil means
	// no shift pending (spec.md §4.1 invariant ii).
	CacheShift *int

	SystemPromptSet bool
}

// SelectionLike is satisfied by internal/view.SelectionState; declared
// here as a tiny interface so App can embed a scroll/selection cursor
// without chatmodel depending on internal/view.
type SelectionLike interface {
	Position() (selected, scroll int)
}

// NewApp seeds a fresh App, optionally inserting a system-prompt message
// exactly as original_source's App::new does.
func NewApp(systemPrompt, modelKey, promptKey string) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	a := &App{
		Follow:           true,
		PendingAssistant: -1,
		AssistantStats:   make(map[int]string),
		ModelKey:         modelKey,
		PromptKey:        promptKey,
		ChatSelection:    [2]int{0, -1},
		BusySpinner:      s,
	}
	if systemPrompt != "" {
		a.SetSystemPrompt(systemPrompt)
	}
	return a
}

// SetSystemPrompt inserts or replaces the system message at position 0.
// Inserting (as opposed to replacing in place) requires a cache shift
// since every later message's cache key position moves by one.
func (a *App) SetSystemPrompt(content string) {
	msg := Message{
		Role:      llm.RoleSystem,
		Parts:     []llm.Part{{Type: llm.PartText, Text: content}},
		CreatedAt: time.Now(),
	}
	if len(a.Messages) > 0 && a.Messages[0].Role == llm.RoleSystem {
		a.Messages[0] = msg
		return
	}
	a.Messages = append([]Message{msg}, a.Messages...)
	zero := 0
	a.CacheShift = &zero
	a.SystemPromptSet = true
}
