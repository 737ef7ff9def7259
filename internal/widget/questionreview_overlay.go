package widget

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/deepchat/deepchat/internal/broker"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/tabs"
	"github.com/deepchat/deepchat/internal/view"
)

// QuestionReviewOverlay walks the reviewer through an ask_user-style
// multi-question tool call, one decision per sub-question, grounded on
// original_source's ui/runtime_impl/runtime_question_review/tool.rs.
// Enter only submits once every sub-question has a non-pending decision
// (spec.md §4.7).
type QuestionReviewOverlay struct {
	Model   *tabs.Model
	Theme   render.Theme
	Overlay *view.State

	cursor int
}

func (q *QuestionReviewOverlay) Measure(ctx *LayoutCtx, bc Constraints) Size {
	return bc.Constrain(Size{Width: bc.Max.Width, Height: bc.Max.Height})
}

func (q *QuestionReviewOverlay) Place(ctx *LayoutCtx, layout *FrameLayout, rect Rect) {
	tab := q.Model.Active()
	if tab == nil || tab.QuestionReview == nil {
		q.cursor = 0
		return
	}
	if q.cursor >= len(tab.QuestionReview.Questions) {
		q.cursor = len(tab.QuestionReview.Questions) - 1
	}
	if q.cursor < 0 {
		q.cursor = 0
	}
}

func (q *QuestionReviewOverlay) Update(ctx *UpdateCtx, layout *FrameLayout, upd *FrameUpdate) {}

func (q *QuestionReviewOverlay) Event(ctx *EventCtx, ev Event, layout *FrameLayout, upd *FrameUpdate, rect Rect) EventResult {
	if ev.Kind != EventKey {
		return EventResult{}
	}
	tab := q.Model.Active()
	if tab == nil || tab.QuestionReview == nil {
		return EventResult{}
	}
	pending := tab.QuestionReview

	switch ev.Key {
	case "up":
		if q.cursor > 0 {
			q.cursor--
		}
		return EventResult{Handled: true, Dirty: true}
	case "down":
		if q.cursor < len(pending.Questions)-1 {
			q.cursor++
		}
		return EventResult{Handled: true, Dirty: true}
	case "y":
		pending.Decisions[q.cursor] = broker.DecisionApproved
		return EventResult{Handled: true, Dirty: true}
	case "n":
		pending.Decisions[q.cursor] = broker.DecisionRejected
		return EventResult{Handled: true, Dirty: true}
	case "enter":
		if !pending.AllDecided() {
			return EventResult{Handled: true}
		}
		tab.App.PendingCmd = broker.QuestionReviewCommand{Target: pending}
		return EventResult{Handled: true, Dirty: true}
	}
	return EventResult{}
}

func (q *QuestionReviewOverlay) Render(frame *Frame, layout *FrameLayout, upd *FrameUpdate, rect Rect) {
	tab := q.Model.Active()
	if tab == nil || tab.QuestionReview == nil {
		return
	}
	pending := tab.QuestionReview
	title := lipgloss.NewStyle().Foreground(q.Theme.ToolFg).Bold(true)
	frame.WriteLine(title.Render("question review — y/n to decide, enter to submit once all decided"))
	for i, question := range pending.Questions {
		mark := "?"
		switch pending.Decisions[i] {
		case broker.DecisionApproved:
			mark = "y"
		case broker.DecisionRejected:
			mark = "n"
		}
		style := lipgloss.NewStyle().Foreground(q.Theme.SystemFg)
		if i == q.cursor {
			style = lipgloss.NewStyle().Foreground(q.Theme.UserFg).Bold(true)
		}
		frame.WriteLine(style.Render(fmt.Sprintf("[%s] %d. %s", mark, i+1, question)))
	}
}
