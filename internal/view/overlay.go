package view

// Kind enumerates every overlay the runtime can show. Chat is the
// "no overlay active" sentinel kind, matching original_source's
// OverlayState::is_chat() check. The original only has four variants
// (Summary, Jump, Model, Prompt); Help, CodeExec, FilePatch,
// QuestionReview, and Terminal are SPEC_FULL supplements that follow the
// same open/close/toggle API.
type Kind int

const (
	Chat Kind = iota
	Summary
	Jump
	Model
	Prompt
	Help
	CodeExec
	FilePatch
	QuestionReview
	Terminal
)

func (k Kind) String() string {
	switch k {
	case Chat:
		return "chat"
	case Summary:
		return "summary"
	case Jump:
		return "jump"
	case Model:
		return "model"
	case Prompt:
		return "prompt"
	case Help:
		return "help"
	case CodeExec:
		return "code_exec"
	case FilePatch:
		return "file_patch"
	case QuestionReview:
		return "question_review"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// State holds at most one active overlay, ported from original_source's
// ui/overlay.rs::OverlayState.
type State struct {
	active *Kind
}

// IsChat reports whether no overlay is active.
func (s *State) IsChat() bool { return s.active == nil }

// Is reports whether kind is the active overlay.
func (s *State) Is(kind Kind) bool { return s.active != nil && *s.active == kind }

// Active returns the active kind and true, or (Chat, false) if none.
func (s *State) Active() (Kind, bool) {
	if s.active == nil {
		return Chat, false
	}
	return *s.active, true
}

// UsesSimpleLayout reports whether the active overlay uses the
// no-input-row "simple" layout (Summary and Jump only, per spec.md §4.4).
func (s *State) UsesSimpleLayout() bool {
	return s.Is(Summary) || s.Is(Jump)
}

// Open activates kind unconditionally.
func (s *State) Open(kind Kind) {
	k := kind
	s.active = &k
}

// Close deactivates whatever overlay is active.
func (s *State) Close() { s.active = nil }

// Toggle closes the overlay if kind is already active, else opens it.
func (s *State) Toggle(kind Kind) {
	if s.Is(kind) {
		s.Close()
		return
	}
	s.Open(kind)
}
