package runtime

import (
	"context"
	"time"

	"github.com/deepchat/deepchat/internal/broker"
	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/llm"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/view"
)

const toolRole = llm.RoleTool

func textParts(content string) []llm.Part {
	return []llm.Part{{Type: llm.PartText, Text: content}}
}

// SessionCommand, TabCommand, CodeExecCommand, FilePatchCommand, and
// QuestionReviewCommand are aliased from internal/chatmodel and
// internal/broker, which own their definitions so the input box's
// slash-command parser and the approval overlay widgets (both in
// internal/widget) can construct them without importing
// internal/runtime (the package that drives widgets, and so cannot be
// imported back by them).
type SessionCommand = chatmodel.SessionCommand
type TabCommand = chatmodel.TabCommand
type CodeExecCommand = broker.CodeExecCommand
type FilePatchCommand = broker.FilePatchCommand
type QuestionReviewCommand = broker.QuestionReviewCommand

// Dispatcher holds everything HandlePendingCommand needs to carry out
// each command class's side effects, bound once at startup.
type Dispatcher struct {
	Model    *tabs.Model
	Spawner  broker.Spawner
	Applier  broker.Applier
	Session  SessionHandler
	SysPrmpt string
	ModelKey string
	Prompt   string

	// Overlay is the single active-overlay state widget.Root renders
	// against; HandleToolCalls opens CodeExec/FilePatch overlays on
	// suspension and HandlePendingCommand closes them on resolution. Nil
	// is valid for tests that never exercise the approval overlays.
	Overlay *view.State

	// ToolDispatch classifies and executes tool calls (spec.md §4.7);
	// nil means HandleToolCalls has nothing to dispatch against and
	// every call is refused, matching a tab with no tools enabled.
	ToolDispatch *broker.DispatchConfig

	// YOLO auto-approves code_exec (spec.md §4.7's YOLO mode) and marks
	// the resulting PendingCodeExec to auto-submit Exit once its LiveExec
	// finishes, instead of waiting for a manual Exit keypress.
	YOLO bool
}

// SessionHandler persists or loads a tab's conversation file, mutating
// tab in place (its ConversationID and/or Messages) and returning a
// human-readable result path for the follow-up assistant message.
// Implemented by internal/runtime.FileSessionHandler.
type SessionHandler interface {
	Handle(cmd SessionCommand, tab *tabs.Tab) (path string, err error)
}

// pusherFor adapts a tab's App into a broker.ToolMessagePusher by
// appending a tool-role message and marking the tab's render cache
// dirty at the new message's index.
type pusherFor struct {
	tab *tabs.Tab
}

func (p pusherFor) PushToolMessage(toolCallID, content string) {
	msg := chatmodel.Message{Role: toolRole, ToolCallID: toolCallID, Parts: textParts(content), CreatedAt: time.Now()}
	p.tab.App.Messages = append(p.tab.App.Messages, msg)
	p.tab.MarkDirty(len(p.tab.App.Messages) - 1)
}

// HandlePendingCommand is a direct structural port of original_source's
// ui/runtime_loop_helpers/pending/{mod,actions,session,tab}.rs dispatch
// chain: session command, then code-exec command, then file-patch
// command, then question-review command, then tab command — first
// matching type wins (spec.md §4.8 step 4).
//
// Its bool return reports whether the command finished a suspended tool
// turn (a code_exec Deny/Exit, a file_patch Apply/Cancel, or a fully
// decided question_review submit) — the signal RunFrame uses to start a
// follow-up request against the provider via Loop.Continue, since the
// conversation now has a tool-result message the model hasn't seen yet.
func (d *Dispatcher) HandlePendingCommand(cmd chatmodel.PendingCommand) bool {
	active := d.Model.Active()
	if active == nil {
		return false
	}
	push := pusherFor{tab: active}

	switch c := cmd.(type) {
	case SessionCommand:
		d.handleSessionCommand(c, active)
		return false
	case CodeExecCommand:
		_ = broker.HandleCodeExecAction(c.Target, c.Action, d.Spawner, push)
		if c.Action == broker.CodeExecDeny || c.Action == broker.CodeExecExit {
			d.clearCodeExec(active, c.Target)
			return true
		}
		return false
	case FilePatchCommand:
		_ = broker.HandleFilePatchAction(c.Target, c.Action, d.Applier, push)
		d.clearFilePatch(active, c.Target)
		return true
	case QuestionReviewCommand:
		if !c.Target.AllDecided() {
			return false
		}
		_, _ = broker.SubmitQuestionReview(c.Target, push)
		d.clearQuestionReview(active, c.Target)
		return true
	case TabCommand:
		d.handleTabCommand(c)
		return false
	}
	return false
}

func (d *Dispatcher) closeOverlay(kind view.Kind) {
	if d.Overlay != nil && d.Overlay.Is(kind) {
		d.Overlay.Close()
	}
}

func (d *Dispatcher) clearCodeExec(tab *tabs.Tab, target *broker.PendingCodeExec) {
	if tab.CodeExec == target {
		tab.CodeExec = nil
	}
	d.closeOverlay(view.CodeExec)
}

func (d *Dispatcher) clearFilePatch(tab *tabs.Tab, target *broker.PendingFilePatch) {
	if tab.FilePatch == target {
		tab.FilePatch = nil
	}
	d.closeOverlay(view.FilePatch)
}

func (d *Dispatcher) clearQuestionReview(tab *tabs.Tab, target *broker.PendingQuestionReview) {
	if tab.QuestionReview == target {
		tab.QuestionReview = nil
	}
	d.closeOverlay(view.QuestionReview)
}

// HandleToolCalls dispatches every tool call a ToolCalls stream event
// carried (spec.md §4.7). Calls that resolve synchronously (web_search,
// read_file, read_code, list_dir, unknown, and every disabled/refused
// case) get their tool-result message pushed immediately; modify_file
// and code_exec instead suspend the turn behind a pending approval
// surfaced as an overlay. Returns whether every call resolved
// synchronously — the signal RunFrame uses to immediately start a
// follow-up request, versus waiting for HandlePendingCommand to report
// the suspended turn's resolution later.
func (d *Dispatcher) HandleToolCalls(tab *tabs.Tab, calls []llm.ToolCall) (continueTurn bool) {
	if d.ToolDispatch == nil {
		push := pusherFor{tab: tab}
		for _, call := range calls {
			push.PushToolMessage(call.ID, broker.UnknownToolMessage(call.Name))
		}
		return true
	}
	push := pusherFor{tab: tab}
	continueTurn = true
	for _, call := range calls {
		outcome := broker.Dispatch(context.Background(), d.ToolDispatch, call)
		switch {
		case outcome.CodeExec != nil:
			tab.CodeExec = outcome.CodeExec
			if d.YOLO {
				tab.CodeExec.AutoExit = true
				_ = broker.HandleCodeExecAction(tab.CodeExec, broker.CodeExecApprove, d.Spawner, push)
			}
			if d.Overlay != nil {
				d.Overlay.Open(view.CodeExec)
			}
			continueTurn = false
		case outcome.FilePatch != nil:
			tab.FilePatch = outcome.FilePatch
			if d.Overlay != nil {
				d.Overlay.Open(view.FilePatch)
			}
			continueTurn = false
		default:
			push.PushToolMessage(call.ID, outcome.Result)
		}
	}
	return continueTurn
}

// handleSessionCommand saves/opens the active tab's conversation and
// appends the exact assistant-role confirmation text spec.md §6's
// testable scenario S3 names ("已保存会话：<path>").
func (d *Dispatcher) handleSessionCommand(c SessionCommand, active *tabs.Tab) {
	if d.Session == nil {
		return
	}
	path, err := d.Session.Handle(c, active)
	var text string
	switch {
	case err != nil:
		text = "保存会话失败：" + err.Error()
	case c.Action == "save":
		text = "已保存会话：" + path
	case c.Action == "open":
		text = "已打开会话：" + path
	default:
		return
	}
	active.App.Messages = append(active.App.Messages, chatmodel.Message{
		Role:      llm.RoleAssistant,
		Parts:     textParts(text),
		CreatedAt: time.Now(),
	})
	active.MarkDirty(len(active.App.Messages) - 1)
}

func (d *Dispatcher) handleTabCommand(c TabCommand) {
	switch c.Action {
	case "new_tab":
		d.Model.NewTab(d.SysPrmpt, d.ModelKey, d.Prompt, "")
	case "new_category":
		d.Model.NewTab(d.SysPrmpt, d.ModelKey, d.Prompt, c.Category)
	case "close_tab":
		d.Model.CloseTab(c.Index)
	case "close_others":
		d.Model.CloseOtherTabs(c.Index)
	case "close_all":
		d.Model.CloseAllTabs()
	}
}
