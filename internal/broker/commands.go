package broker

// CodeExecCommand carries a user decision against a specific
// PendingCodeExec. Produced by the code_exec approval overlay widget
// (internal/widget) and consumed by internal/runtime's Dispatcher; it
// lives here rather than in internal/runtime so the widget layer — which
// must not import internal/runtime, the package that drives widgets —
// can still construct one directly.
type CodeExecCommand struct {
	Target *PendingCodeExec
	Action CodeExecAction
}

func (CodeExecCommand) Kind() string { return "code_exec" }

// FilePatchCommand carries a user decision against a specific
// PendingFilePatch, for the same reason CodeExecCommand lives here.
type FilePatchCommand struct {
	Target *PendingFilePatch
	Action FilePatchAction
}

func (FilePatchCommand) Kind() string { return "file_patch" }

// QuestionReviewCommand submits a fully-decided PendingQuestionReview.
type QuestionReviewCommand struct {
	Target *PendingQuestionReview
}

func (QuestionReviewCommand) Kind() string { return "question_review" }
