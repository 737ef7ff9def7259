// Package tabs implements the ordered tab list and parallel category
// list (C5): new/close/navigate operations and category-filtered
// position computation. The teacher is single-session and has no
// multi-tab analogue; this package follows original_source's
// ui/runtime_loop_helpers/category.rs pattern for category-aware
// navigation, generalized into a standalone model.
package tabs

import (
	"github.com/deepchat/deepchat/internal/broker"
	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/render"
	"github.com/deepchat/deepchat/internal/stream"
)

// DefaultCategory is the category every new tab joins unless told
// otherwise, and the one category that is never pruned even when empty
// (spec.md §9 Open Question, resolved to retain it — see DESIGN.md).
const DefaultCategory = "默认"

// Tab is one conversation tab: an App (chat state), its own render
// cache, category membership, and the last width it was rendered at
// (used to decide whether a resize dirtied every cache entry).
type Tab struct {
	id        int
	Category  string
	App       *chatmodel.App
	Cache     *render.Cache
	Machine   *stream.Machine
	LastWidth int
	dirty     []int

	// ConversationID tracks the persisted conversation file's id once
	// this tab has been saved at least once, so later saves overwrite
	// the same file instead of minting a new one (spec.md §6).
	ConversationID string

	// CodeExec, FilePatch, and QuestionReview hold this tab's suspended
	// tool-call turn awaiting human approval, if any (spec.md §4.7). At
	// most one is non-nil at a time in the current implementation, since
	// a ToolCalls batch is dispatched and resolved one overlay at a time.
	CodeExec       *broker.PendingCodeExec
	FilePatch      *broker.PendingFilePatch
	QuestionReview *broker.PendingQuestionReview
}

// ID returns the tab's stable identity (its index at creation time;
// never reused within a process, even after the tab closes).
func (t *Tab) ID() int { return t.id }

// Messages implements preheat.TabView.
func (t *Tab) Messages() []chatmodel.Message { return t.App.Messages }

// MarkDirty records that message idx needs its cache entry recomputed,
// for the preheat pool to pick up when this tab isn't active.
func (t *Tab) MarkDirty(idx int) {
	t.dirty = append(t.dirty, idx)
}

// DrainDirtyIndices implements preheat.TabView: pops up to max indices
// in FIFO order.
func (t *Tab) DrainDirtyIndices(max int) []int {
	if len(t.dirty) == 0 {
		return nil
	}
	n := len(t.dirty)
	if n > max {
		n = max
	}
	out := t.dirty[:n]
	t.dirty = t.dirty[n:]
	return out
}

// Model owns the ordered tab list. Tabs keep their position in Tabs;
// closing removes them from the slice (spec.md has no notion of tab
// indices surviving a close, unlike IDs).
type Model struct {
	Tabs       []*Tab
	Categories []string
	ActiveIdx  int
	nextID     int
}

// NewModel returns a model with one tab in DefaultCategory.
func NewModel(systemPrompt, modelKey, promptKey string) *Model {
	m := &Model{Categories: []string{DefaultCategory}}
	m.NewTab(systemPrompt, modelKey, promptKey, DefaultCategory)
	return m
}

// Active returns the currently active tab, or nil if there are none.
func (m *Model) Active() *Tab {
	if m.ActiveIdx < 0 || m.ActiveIdx >= len(m.Tabs) {
		return nil
	}
	return m.Tabs[m.ActiveIdx]
}

// NewTab appends a tab with the given system prompt and model/prompt
// keys, joining category (or the active tab's category if empty), and
// makes it the active tab.
func (m *Model) NewTab(systemPrompt, modelKey, promptKey, category string) *Tab {
	if category == "" {
		if a := m.Active(); a != nil {
			category = a.Category
		} else {
			category = DefaultCategory
		}
	}
	m.ensureCategory(category)
	app := chatmodel.NewApp(systemPrompt, modelKey, promptKey)
	t := &Tab{
		id:       m.nextID,
		Category: category,
		App:      app,
		Cache:    render.NewCache(),
		Machine:  stream.New(app),
	}
	m.nextID++
	m.Tabs = append(m.Tabs, t)
	m.ActiveIdx = len(m.Tabs) - 1
	return t
}

func (m *Model) ensureCategory(cat string) {
	for _, c := range m.Categories {
		if c == cat {
			return
		}
	}
	m.Categories = append(m.Categories, cat)
}

// CloseTab removes the tab at idx. A category this leaves without tabs,
// the default one or any other, stays in Categories.
func (m *Model) CloseTab(idx int) {
	if idx < 0 || idx >= len(m.Tabs) {
		return
	}
	m.Tabs = append(m.Tabs[:idx], m.Tabs[idx+1:]...)
	if m.ActiveIdx >= len(m.Tabs) {
		m.ActiveIdx = len(m.Tabs) - 1
	}
}

func (m *Model) pruneCategoryIfEmpty(cat string) {
	if cat == DefaultCategory {
		return
	}
	for _, t := range m.Tabs {
		if t.Category == cat {
			return
		}
	}
	for i, c := range m.Categories {
		if c == cat {
			m.Categories = append(m.Categories[:i], m.Categories[i+1:]...)
			return
		}
	}
}

// CloseOtherTabs keeps only the tab at idx.
func (m *Model) CloseOtherTabs(idx int) {
	if idx < 0 || idx >= len(m.Tabs) {
		return
	}
	keep := m.Tabs[idx]
	m.Tabs = []*Tab{keep}
	m.ActiveIdx = 0
	m.Categories = []string{DefaultCategory, keep.Category}
	m.dedupeCategories()
}

// CloseAllTabs clears every tab; callers typically immediately create a
// fresh one via NewTab.
func (m *Model) CloseAllTabs() {
	m.Tabs = nil
	m.ActiveIdx = -1
	m.Categories = []string{DefaultCategory}
}

func (m *Model) dedupeCategories() {
	seen := map[string]bool{}
	var out []string
	for _, c := range m.Categories {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	m.Categories = out
}

// inCategory returns the indices (into m.Tabs) of every tab whose
// Category equals cat, in order.
func (m *Model) inCategory(cat string) []int {
	var out []int
	for i, t := range m.Tabs {
		if t.Category == cat {
			out = append(out, i)
		}
	}
	return out
}

// PositionInCategory returns (position, count) of the tab at idx among
// its category's members, 0-indexed.
func (m *Model) PositionInCategory(idx int) (pos, count int) {
	if idx < 0 || idx >= len(m.Tabs) {
		return 0, 0
	}
	members := m.inCategory(m.Tabs[idx].Category)
	for p, mi := range members {
		if mi == idx {
			return p, len(members)
		}
	}
	return 0, len(members)
}

// NextTab moves ActiveIdx to the next tab within the active category,
// wrapping around.
func (m *Model) NextTab() {
	a := m.Active()
	if a == nil {
		return
	}
	members := m.inCategory(a.Category)
	m.step(members, 1)
}

// PrevTab moves ActiveIdx to the previous tab within the active
// category, wrapping around.
func (m *Model) PrevTab() {
	a := m.Active()
	if a == nil {
		return
	}
	members := m.inCategory(a.Category)
	m.step(members, -1)
}

func (m *Model) step(members []int, delta int) {
	if len(members) == 0 {
		return
	}
	pos := 0
	for i, mi := range members {
		if mi == m.ActiveIdx {
			pos = i
			break
		}
	}
	pos = (pos + delta + len(members)) % len(members)
	m.ActiveIdx = members[pos]
}

// NextCategory switches the active tab to the first tab of the next
// category after the current one, wrapping around.
func (m *Model) NextCategory() { m.stepCategory(1) }

// PrevCategory switches to the first tab of the previous category.
func (m *Model) PrevCategory() { m.stepCategory(-1) }

func (m *Model) stepCategory(delta int) {
	a := m.Active()
	if a == nil || len(m.Categories) == 0 {
		return
	}
	pos := 0
	for i, c := range m.Categories {
		if c == a.Category {
			pos = i
			break
		}
	}
	for n := 0; n < len(m.Categories); n++ {
		pos = (pos + delta + len(m.Categories)) % len(m.Categories)
		members := m.inCategory(m.Categories[pos])
		if len(members) > 0 {
			m.ActiveIdx = members[0]
			return
		}
	}
}
