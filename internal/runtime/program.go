package runtime

import (
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/deepchat/deepchat/internal/widget"
)

// Program bridges bubbletea's callback-driven Update/View contract onto
// Loop's own blocking RunFrame/WaitForEvents cooperative loop. RunFrame
// keeps running exactly as original_source's terminal-agnostic runtime
// loop does, in its own goroutine; bubbletea is reduced to a terminal
// I/O driver that translates raw input into widget.Events and repaints
// whatever the drive goroutine last rendered.
//
// This split exists because bubbletea expects Update/View to be pure,
// quick callbacks driven by its own internal event loop, while Loop's
// WaitForEvents blocks on a timeout that varies with tab state (spec.md
// §4.8/§5) — the two loops cannot be collapsed into one without either
// blocking bubbletea's renderer or giving RunFrame a callback shape it
// was never designed for.
type Program struct {
	Loop *Loop

	input chan widget.Event
	quit  chan struct{}

	mu   sync.Mutex
	view string
}

// redrawMsg is sent by the drive goroutine after every RunFrame call so
// bubbletea's own loop wakes up and re-reads View.
type redrawMsg struct{}

// NewProgram wires a fresh input channel into loop; the caller's Sources
// should NOT set Input — Run overwrites it with this channel.
func NewProgram(loop *Loop) *Program {
	return &Program{
		Loop:  loop,
		input: make(chan widget.Event, 64),
		quit:  make(chan struct{}),
	}
}

// Run starts the frame-driving goroutine and blocks in bubbletea's own
// loop until the user quits or the terminal disconnects.
func (p *Program) Run(src Sources, pending HandlePendingCommandFn) error {
	src.Input = p.input
	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	// Matches the teacher's own useAltScreen := term.IsTerminal(...) check
	// (cmd/chat.go): a scripted run with stdout redirected to a file (the
	// --question-set test harness) should not fight the terminal for an
	// alt-screen buffer it doesn't own.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		opts = append(opts, tea.WithAltScreen())
	}
	tp := tea.NewProgram(p, opts...)
	go p.drive(tp, src, pending)
	_, err := tp.Run()
	close(p.quit)
	return err
}

func (p *Program) drive(tp *tea.Program, src Sources, pending HandlePendingCommandFn) {
	for {
		select {
		case <-p.quit:
			return
		default:
		}
		p.Loop.RunFrame(src, pending)
		p.mu.Lock()
		p.view = strings.Join(p.Loop.LastFrame.Lines, "\n")
		p.mu.Unlock()
		tp.Send(redrawMsg{})
		if p.Loop.Quit() {
			tp.Send(tea.Quit())
			return
		}
	}
}

func (p *Program) Init() tea.Cmd { return nil }

func (p *Program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case redrawMsg:
		return p, nil
	case tea.WindowSizeMsg:
		p.Loop.Width = m.Width
		p.Loop.Height = m.Height
		p.sendInput(widget.Event{Kind: widget.EventResize, W: m.Width, H: m.Height})
		return p, nil
	case tea.KeyMsg:
		p.sendInput(translateKey(m))
		return p, nil
	case tea.MouseMsg:
		if ev, ok := translateMouse(m); ok {
			p.sendInput(ev)
		}
		return p, nil
	}
	return p, nil
}

func (p *Program) View() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// sendInput forwards ev into the loop's input channel, dropping it if
// the channel is saturated rather than blocking bubbletea's own loop —
// a dropped keystroke under extreme backpressure is preferable to
// freezing terminal input entirely.
func (p *Program) sendInput(ev widget.Event) {
	select {
	case p.input <- ev:
	default:
	}
}

// translateKey turns a bubbletea key message into a widget.Event,
// routing bracketed-paste runs to EventPaste and everything else to
// EventKey keyed on tea.KeyMsg.String() (which already renders the
// "ctrl+q"/"f1"/"pgup"/single-rune shapes widget.Event.Key expects).
func translateKey(m tea.KeyMsg) widget.Event {
	if m.Paste {
		return widget.Event{Kind: widget.EventPaste, Paste: string(m.Runes)}
	}
	return widget.Event{Kind: widget.EventKey, Key: m.String()}
}

// translateMouse maps a bubbletea mouse message to widget's four mouse
// kinds; button-less motion with no press/release/wheel is not
// meaningful to any widget yet, so it is dropped.
func translateMouse(m tea.MouseMsg) (widget.Event, bool) {
	var kind widget.MouseKind
	switch {
	case m.Button == tea.MouseButtonWheelUp:
		kind = widget.MouseScrollUp
	case m.Button == tea.MouseButtonWheelDown:
		kind = widget.MouseScrollDown
	case m.Action == tea.MouseActionPress:
		kind = widget.MouseDown
	case m.Action == tea.MouseActionRelease:
		kind = widget.MouseUp
	case m.Action == tea.MouseActionMotion:
		kind = widget.MouseDrag
	default:
		return widget.Event{}, false
	}
	return widget.Event{Kind: widget.EventMouse, Mouse: kind, Col: m.X, Row: m.Y}, true
}
