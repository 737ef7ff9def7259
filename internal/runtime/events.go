// Package runtime drives the cooperative single-threaded render/update/
// event loop: one goroutine owns every Tab and its App state, and all
// other goroutines (input, LLM streaming, preheat workers, code_exec
// children) communicate into it exclusively through channels.
package runtime

import (
	"time"

	"github.com/deepchat/deepchat/internal/render/preheat"
	"github.com/deepchat/deepchat/internal/stream"
	"github.com/deepchat/deepchat/internal/widget"
)

// TaggedStreamEvent carries the owning tab's ID alongside a stream
// event, since a single UI goroutine multiplexes many tabs' in-flight
// requests onto one channel.
type TaggedStreamEvent struct {
	TabID int
	Event stream.Event
}

// EventBatch accumulates everything that arrived during one Collect
// step, ported from original_source's ui::events::EventBatch.
type EventBatch struct {
	Input    []widget.Event
	LLM      []TaggedStreamEvent
	Preheat  []preheat.Result
	Terminal []TerminalChildEvent
}

func (b *EventBatch) clear() {
	b.Input = b.Input[:0]
	b.LLM = b.LLM[:0]
	b.Preheat = b.Preheat[:0]
	b.Terminal = b.Terminal[:0]
}

// TerminalChildEvent carries one chunk of output from a tab's Terminal
// overlay child process.
type TerminalChildEvent struct {
	TabID int
	Chunk string
}

// Sources is the set of channels WaitForEvents multiplexes, one per
// goroutine role described in spec.md §5.
type Sources struct {
	Input    <-chan widget.Event
	LLM      <-chan TaggedStreamEvent
	Preheat  <-chan preheat.Result
	Terminal <-chan TerminalChildEvent
}

// WaitOutcome reports what ended the wait, ported from event_wait.rs's
// WaitOutcome.
type WaitOutcome struct {
	Ticked       bool
	Disconnected bool
}

// WaitForEvents blocks for at most timeout waiting for the first event
// on any source, then drains everything else immediately available
// into batch without blocking further — a 1:1 port of
// wait_for_events/drain_remaining, generalized from a single mpsc
// receiver to four typed channels since Go has no sum-typed channel.
func WaitForEvents(src Sources, timeout time.Duration, batch *EventBatch) WaitOutcome {
	batch.clear()

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		timeoutCh = timer.C
		defer timer.Stop()
	}

	select {
	case ev, ok := <-src.Input:
		if !ok {
			return WaitOutcome{Disconnected: true}
		}
		batch.Input = append(batch.Input, ev)
	case ev, ok := <-src.LLM:
		if !ok {
			return WaitOutcome{Disconnected: true}
		}
		batch.LLM = append(batch.LLM, ev)
	case ev, ok := <-src.Preheat:
		if !ok {
			return WaitOutcome{Disconnected: true}
		}
		batch.Preheat = append(batch.Preheat, ev)
	case ev, ok := <-src.Terminal:
		if !ok {
			return WaitOutcome{Disconnected: true}
		}
		batch.Terminal = append(batch.Terminal, ev)
	case <-timeoutCh:
		return WaitOutcome{Ticked: true}
	}

	drainRemaining(src, batch)
	return WaitOutcome{}
}

// drainRemaining opportunistically pulls any further events already
// queued on the channels without blocking, so one wakeup can carry a
// whole burst through a single frame.
func drainRemaining(src Sources, batch *EventBatch) {
	for {
		select {
		case ev, ok := <-src.Input:
			if ok {
				batch.Input = append(batch.Input, ev)
			}
		case ev, ok := <-src.LLM:
			if ok {
				batch.LLM = append(batch.LLM, ev)
			}
		case ev, ok := <-src.Preheat:
			if ok {
				batch.Preheat = append(batch.Preheat, ev)
			}
		case ev, ok := <-src.Terminal:
			if ok {
				batch.Terminal = append(batch.Terminal, ev)
			}
		default:
			return
		}
	}
}

// InputBatchDirty reports whether the batch's input events require a
// redraw, ported from input_batch_dirty (every crossterm key/mouse/
// resize/paste variant is dirtying; Go's widget.Event enumerates the
// same four kinds).
func InputBatchDirty(events []widget.Event) bool {
	return len(events) > 0
}

// PreheatTouchesActiveTab reports whether any preheat result landed in
// the active tab, which forces a re-render even with no input this
// frame (ported from preheat_touches_active_tab).
func PreheatTouchesActiveTab(results []preheat.Result, activeTabID int) bool {
	for _, r := range results {
		if r.TabID == activeTabID {
			return true
		}
	}
	return false
}
