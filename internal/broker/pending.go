package broker

import "fmt"

// CodeExecAction is the user action a PendingCodeExec overlay can
// dispatch, ported from original_source's private CodeExecAction enum
// in ui/runtime_loop_helpers/pending/actions.rs.
type CodeExecAction int

const (
	CodeExecApprove CodeExecAction = iota
	CodeExecDeny
	CodeExecStop
	CodeExecExit
)

// FilePatchAction mirrors original_source's FilePatchAction enum.
type FilePatchAction int

const (
	FilePatchApply FilePatchAction = iota
	FilePatchCancel
)

// Spawner starts the sandboxed process for an approved code_exec,
// implemented by internal/sandbox.
type Spawner interface {
	Spawn(pending *PendingCodeExec) error
}

// Applier writes an approved file patch to disk, implemented by
// FileApplier in file_patch.go.
type Applier interface {
	Apply(pending *PendingFilePatch) error
}

// ToolMessagePusher appends a tool-role result message to the owning
// tab's conversation and marks it dirty, implemented by the caller
// (internal/runtime's pusherFor, which wraps an internal/tabs.Tab).
type ToolMessagePusher interface {
	PushToolMessage(toolCallID, content string)
}

// HandleCodeExecAction dispatches one user action against a
// PendingCodeExec, mutating state and pushing the resulting tool
// message as needed. Ported from original_source's
// handle_code_exec_{approve,deny,exit,stop} dispatch.
func HandleCodeExecAction(pending *PendingCodeExec, action CodeExecAction, spawn Spawner, push ToolMessagePusher) error {
	switch action {
	case CodeExecApprove:
		if pending.Live == nil {
			pending.Live = NewLiveExec()
		}
		return spawn.Spawn(pending)
	case CodeExecDeny:
		push.PushToolMessage(pending.ToolCallID, "用户拒绝执行该代码。"+pending.ReasonText)
		return nil
	case CodeExecStop:
		pending.Cancel.Stop()
		return nil
	case CodeExecExit:
		if pending.Live != nil {
			stdout, stderr, exitCode, _ := pending.Live.Snapshot()
			push.PushToolMessage(pending.ToolCallID, FormatCodeExecResult(stdout, stderr, exitCode))
		}
		return nil
	}
	return fmt.Errorf("unknown code exec action %d", action)
}

// HandleFilePatchAction dispatches one user action against a
// PendingFilePatch.
func HandleFilePatchAction(pending *PendingFilePatch, action FilePatchAction, apply Applier, push ToolMessagePusher) error {
	switch action {
	case FilePatchApply:
		if err := apply.Apply(pending); err != nil {
			push.PushToolMessage(pending.ToolCallID, fmt.Sprintf("应用修改失败：%v", err))
			return err
		}
		push.PushToolMessage(pending.ToolCallID, "修改已应用："+pending.Path)
		return nil
	case FilePatchCancel:
		push.PushToolMessage(pending.ToolCallID, "用户取消了该修改。")
		return nil
	}
	return fmt.Errorf("unknown file patch action %d", action)
}

// SubmitQuestionReview finalizes a PendingQuestionReview once every
// sub-question has a decision: it emits one tool-result JSON enumerating
// approved/rejected items and returns the indices that need a follow-up
// user turn queued — a partial submit (some rejected) still yields
// follow-ups for the approved subset, per spec.md §9's resolved open
// question.
func SubmitQuestionReview(pending *PendingQuestionReview, push ToolMessagePusher) (followUps []int, err error) {
	if !pending.AllDecided() {
		return nil, fmt.Errorf("question review %s is not fully decided", pending.ToolCallID)
	}
	approved := pending.ApprovedIndices()
	push.PushToolMessage(pending.ToolCallID, FormatQuestionReviewResult(pending, approved))
	return approved, nil
}
