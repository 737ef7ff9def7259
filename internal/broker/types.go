package broker

import (
	"sync"
	"time"

	"github.com/deepchat/deepchat/internal/chatmodel"
)

// LiveExec is the mutex-guarded state of a running code_exec, grounded
// on original_source's services/runtime_code_exec/helpers.rs::
// init_code_exec_live (CodeExecLive). Readers must copy the strings
// under the lock then release before rendering.
type LiveExec struct {
	mu         sync.Mutex
	StartedAt  time.Time
	FinishedAt time.Time
	Stdout     string
	Stderr     string
	ExitCode   int
	Done       bool
}

// NewLiveExec starts a fresh handle.
func NewLiveExec() *LiveExec {
	return &LiveExec{StartedAt: time.Now(), ExitCode: -1}
}

// AppendStdout/AppendStderr are called from the process-reading
// goroutine as output streams in.
func (l *LiveExec) AppendStdout(s string) {
	l.mu.Lock()
	l.Stdout += s
	l.mu.Unlock()
}

func (l *LiveExec) AppendStderr(s string) {
	l.mu.Lock()
	l.Stderr += s
	l.mu.Unlock()
}

// Finish marks the exec complete with the given exit code.
func (l *LiveExec) Finish(exitCode int) {
	l.mu.Lock()
	l.ExitCode = exitCode
	l.Done = true
	l.FinishedAt = time.Now()
	l.mu.Unlock()
}

// MarkError writes an error message to stderr and finishes with exit
// code -1, matching original_source's mark_exec_error /
// mark_unsupported_language.
func (l *LiveExec) MarkError(msg string) {
	l.mu.Lock()
	l.Stderr += msg
	l.ExitCode = -1
	l.Done = true
	l.FinishedAt = time.Now()
	l.mu.Unlock()
}

// Snapshot returns a consistent copy of the live state for rendering.
func (l *LiveExec) Snapshot() (stdout, stderr string, exitCode int, done bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Stdout, l.Stderr, l.ExitCode, l.Done
}

// PendingCodeExec is the suspended-turn state while a code_exec tool
// call awaits approval or is running, ported from original_source's
// ui/state.rs (PendingCodeExec) fields.
type PendingCodeExec struct {
	ToolCallID string
	Language   string
	Code       string
	ExecCode   string // LLM-edited/confirmed override of Code, if any
	RunID      string
	Live       *LiveExec
	Cancel     *chatmodel.RequestHandle
	ReasonText string // optional user-supplied deny/stop reason

	// AutoExit marks a YOLO-mode exec to self-submit CodeExecExit once
	// Live reports Done, instead of waiting for a manual keypress.
	AutoExit bool
}

// EffectiveCode returns ExecCode if set, else Code, matching
// original_source's exec_code-falls-back-to-code behavior.
func (p *PendingCodeExec) EffectiveCode() string {
	if p.ExecCode != "" {
		return p.ExecCode
	}
	return p.Code
}

func (p *PendingCodeExec) Kind() string { return "code_exec" }

// PendingFilePatch is the suspended-turn state for a modify_file call
// awaiting Apply/Cancel, ported from original_source's
// ui/file_patch_popup_layout.rs usage and the teacher's edit-diff shape.
type PendingFilePatch struct {
	ToolCallID string
	Path       string
	Diff       string
	Preview    string
	NewContent string
}

func (p *PendingFilePatch) Kind() string { return "file_patch" }

// QuestionDecision is one sub-question's reviewer decision.
type QuestionDecision int

const (
	DecisionPending QuestionDecision = iota
	DecisionApproved
	DecisionRejected
)

// PendingQuestionReview is the suspended-turn state for an ask_user-style
// multi-question tool call, ported from original_source's
// ui/runtime_impl/runtime_question_review/tool.rs.
type PendingQuestionReview struct {
	ToolCallID string
	Questions  []string
	Decisions  []QuestionDecision
}

func (p *PendingQuestionReview) Kind() string { return "question_review" }

// AllDecided reports whether every sub-question has a non-pending
// decision (spec.md §4.7: Enter is only accepted once this is true).
func (p *PendingQuestionReview) AllDecided() bool {
	for _, d := range p.Decisions {
		if d == DecisionPending {
			return false
		}
	}
	return true
}

// ApprovedIndices returns the indices of every approved sub-question.
func (p *PendingQuestionReview) ApprovedIndices() []int {
	var out []int
	for i, d := range p.Decisions {
		if d == DecisionApproved {
			out = append(out, i)
		}
	}
	return out
}
