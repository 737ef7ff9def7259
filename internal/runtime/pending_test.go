package runtime

import (
	"encoding/json"
	"testing"

	"github.com/deepchat/deepchat/internal/broker"
	"github.com/deepchat/deepchat/internal/llm"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/view"
)

type fakeSpawner struct{ called bool }

func (f *fakeSpawner) Spawn(p *broker.PendingCodeExec) error {
	f.called = true
	return nil
}

type fakeApplier struct{ called bool }

func (f *fakeApplier) Apply(p *broker.PendingFilePatch) error {
	f.called = true
	return nil
}

func newTestDispatcher() (*Dispatcher, *fakeSpawner, *fakeApplier) {
	model := tabs.NewModel("", "m1", "p1")
	spawner := &fakeSpawner{}
	applier := &fakeApplier{}
	return &Dispatcher{Model: model, Spawner: spawner, Applier: applier, ModelKey: "m1", Prompt: "p1"}, spawner, applier
}

func TestHandlePendingCommandCodeExecApproveCallsSpawner(t *testing.T) {
	d, spawner, _ := newTestDispatcher()
	pending := &broker.PendingCodeExec{ToolCallID: "t1", Language: "python", Code: "print(1)"}
	d.HandlePendingCommand(CodeExecCommand{Target: pending, Action: broker.CodeExecApprove})

	if !spawner.called {
		t.Fatalf("expected code exec approve to invoke the spawner")
	}
}

func TestHandlePendingCommandFilePatchApplyCallsApplier(t *testing.T) {
	d, _, applier := newTestDispatcher()
	pending := &broker.PendingFilePatch{ToolCallID: "t2", Path: "a.go"}
	d.HandlePendingCommand(FilePatchCommand{Target: pending, Action: broker.FilePatchApply})

	if !applier.called {
		t.Fatalf("expected file patch apply to invoke the applier")
	}
	active := d.Model.Active()
	if len(active.App.Messages) == 0 {
		t.Fatalf("expected a tool-result message to be pushed")
	}
}

func TestHandlePendingCommandQuestionReviewRequiresAllDecided(t *testing.T) {
	d, _, _ := newTestDispatcher()
	active := d.Model.Active()
	before := len(active.App.Messages)

	pending := &broker.PendingQuestionReview{
		Questions: []string{"q1", "q2"},
		Decisions: []broker.QuestionDecision{broker.DecisionApproved, broker.DecisionPending},
	}
	d.HandlePendingCommand(QuestionReviewCommand{Target: pending})

	if len(active.App.Messages) != before {
		t.Fatalf("expected no message pushed while a sub-question is still pending")
	}

	pending.Decisions[1] = broker.DecisionRejected
	d.HandlePendingCommand(QuestionReviewCommand{Target: pending})
	if len(active.App.Messages) != before+1 {
		t.Fatalf("expected one tool-result message once fully decided")
	}
}

func TestHandlePendingCommandTabNewTabAddsTab(t *testing.T) {
	d, _, _ := newTestDispatcher()
	before := len(d.Model.Tabs)
	d.HandlePendingCommand(TabCommand{Action: "new_tab"})

	if len(d.Model.Tabs) != before+1 {
		t.Fatalf("expected a new tab to be appended")
	}
}

func TestHandlePendingCommandTabCloseTab(t *testing.T) {
	d, _, _ := newTestDispatcher()
	d.HandlePendingCommand(TabCommand{Action: "new_tab"})
	before := len(d.Model.Tabs)
	d.HandlePendingCommand(TabCommand{Action: "close_tab", Index: 0})

	if len(d.Model.Tabs) != before-1 {
		t.Fatalf("expected one tab to be closed")
	}
}

func TestHandleToolCallsWithNoDispatchPushesUnknownAndContinues(t *testing.T) {
	d, _, _ := newTestDispatcher()
	active := d.Model.Active()
	before := len(active.App.Messages)

	continueTurn := d.HandleToolCalls(active, []llm.ToolCall{{ID: "c1", Name: "web_search"}})

	if !continueTurn {
		t.Fatalf("expected continueTurn = true when ToolDispatch is nil")
	}
	if len(active.App.Messages) != before+1 {
		t.Fatalf("expected one tool-result message to be pushed")
	}
}

func TestHandleToolCallsSynchronousToolContinuesTurn(t *testing.T) {
	d, _, _ := newTestDispatcher()
	dir := t.TempDir()
	ws, err := broker.NewWorkspace(dir)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	d.ToolDispatch = &broker.DispatchConfig{Workspace: ws}
	active := d.Model.Active()
	before := len(active.App.Messages)

	args, _ := json.Marshal(struct {
		Path string `json:"path"`
	}{Path: "."})
	continueTurn := d.HandleToolCalls(active, []llm.ToolCall{{ID: "c1", Name: "list_dir", Arguments: args}})

	if !continueTurn {
		t.Fatalf("expected continueTurn = true for a synchronously resolved tool")
	}
	if len(active.App.Messages) != before+1 {
		t.Fatalf("expected one tool-result message to be pushed")
	}
}

func TestHandleToolCallsCodeExecSuspendsTurn(t *testing.T) {
	d, _, _ := newTestDispatcher()
	dir := t.TempDir()
	ws, err := broker.NewWorkspace(dir)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	d.ToolDispatch = &broker.DispatchConfig{Workspace: ws}
	d.Overlay = &view.State{}
	active := d.Model.Active()

	args, _ := json.Marshal(struct {
		Language string `json:"language"`
		Code     string `json:"code"`
	}{Language: "python", Code: "print(1)"})
	continueTurn := d.HandleToolCalls(active, []llm.ToolCall{{ID: "c1", Name: "code_exec", Arguments: args}})

	if continueTurn {
		t.Fatalf("expected continueTurn = false while code_exec awaits approval")
	}
	if active.CodeExec == nil {
		t.Fatalf("expected tab.CodeExec to be set")
	}
	if !d.Overlay.Is(view.CodeExec) {
		t.Fatalf("expected the CodeExec overlay to be opened")
	}
}

func TestHandleToolCallsYOLOAutoApprovesCodeExec(t *testing.T) {
	d, spawner, _ := newTestDispatcher()
	dir := t.TempDir()
	ws, err := broker.NewWorkspace(dir)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	d.ToolDispatch = &broker.DispatchConfig{Workspace: ws}
	d.YOLO = true
	active := d.Model.Active()

	args, _ := json.Marshal(struct {
		Language string `json:"language"`
		Code     string `json:"code"`
	}{Language: "python", Code: "print(1)"})
	d.HandleToolCalls(active, []llm.ToolCall{{ID: "c1", Name: "code_exec", Arguments: args}})

	if !spawner.called {
		t.Fatalf("expected YOLO mode to auto-approve and invoke the spawner")
	}
	if active.CodeExec == nil || !active.CodeExec.AutoExit {
		t.Fatalf("expected the pending exec to be marked AutoExit")
	}
}
