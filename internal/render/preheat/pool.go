// Package preheat implements the background render-cache warming pool
// (C2): a fixed set of worker goroutines that render off-screen tabs'
// messages ahead of time so switching tabs never stalls on a cold
// cache. Grounded on original_source's ui/runtime_session/preheat.rs
// and ui/runtime_tick/preheat.rs.
package preheat

import (
	"os"
	"runtime"
	"strconv"

	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/render"
)

// Task is one message that needs its render cache entry computed.
type Task struct {
	TabID     int
	Index     int
	Message   chatmodel.Message
	Width     int
	Theme     render.Theme
	Streaming bool
}

// Result is a completed preheat computation, applied to the owning tab's
// cache on the next drain if that tab/index still exists.
type Result struct {
	TabID int
	Index int
	Entry render.CacheEntry
}

// RenderFunc computes a message's cache entry outside the UI goroutine.
// Supplied by the caller so this package doesn't need to import the
// widget-facing label/markdown plumbing directly.
type RenderFunc func(msg chatmodel.Message, width int, theme render.Theme, streaming bool) render.CacheEntry

// Pool owns the worker goroutines and the task/result channels. Go
// channels are natively safe for multiple concurrent senders and
// receivers, so — unlike original_source's Arc<Mutex<Receiver>> — no
// extra mutex wrapper is needed around the shared task channel; see
// DESIGN.md for why this is the one place the Go port intentionally
// diverges from a line-by-line translation.
type Pool struct {
	tasks   chan Task
	results chan Result
	render  RenderFunc
	done    chan struct{}
}

// ResolveWorkerCount mirrors original_source's resolve_worker_count:
// PREHEAT_WORKERS env var if set and valid, else max(1, NumCPU()/2).
func ResolveWorkerCount() int {
	if v := os.Getenv("PREHEAT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// New starts the pool with ResolveWorkerCount() workers.
func New(renderFn RenderFunc) *Pool {
	p := &Pool{
		tasks:   make(chan Task, 256),
		results: make(chan Result, 256),
		render:  renderFn,
		done:    make(chan struct{}),
	}
	n := ResolveWorkerCount()
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			entry := p.render(task.Message, task.Width, task.Theme, task.Streaming)
			select {
			case p.results <- Result{TabID: task.TabID, Index: task.Index, Entry: entry}:
			case <-p.done:
				return
			}
		case <-p.done:
			return
		}
	}
}

// Enqueue submits a task for background rendering. Non-blocking: if the
// queue is saturated the task is dropped (a dropped preheat task just
// means that message renders synchronously later, never a correctness
// issue — spec.md §4.2 Failure policy).
func (p *Pool) Enqueue(t Task) {
	select {
	case p.tasks <- t:
	default:
	}
}

// Results exposes the result channel for a caller that wants to
// multiplex it into a select alongside other event sources (the
// runtime loop's Collect step), rather than polling via DrainResults.
func (p *Pool) Results() <-chan Result { return p.results }

// DrainResults applies every currently-available result via apply,
// non-blockingly. apply is expected to no-op for a tab/index that no
// longer exists (spec.md §4.2 "discarded if the destination tab/message
// is gone").
func (p *Pool) DrainResults(apply func(Result)) {
	for {
		select {
		case r := <-p.results:
			apply(r)
		default:
			return
		}
	}
}

// Close stops every worker goroutine. Safe to call once.
func (p *Pool) Close() {
	close(p.done)
}

// TabView is the minimal surface EnqueueForInactiveTabs needs from a tab,
// satisfied by internal/tabs.Tab.
type TabView interface {
	ID() int
	Messages() []chatmodel.Message
	DrainDirtyIndices(max int) []int
}

// maxTasksPerTabPerFrame is the hard cap original_source's
// preheat_inactive_tabs uses.
const maxTasksPerTabPerFrame = 32

// EnqueueForInactiveTabs submits up to 32 dirty-index tasks per
// non-active tab per frame, ported from
// original_source::preheat_inactive_tabs.
func (p *Pool) EnqueueForInactiveTabs(tabs []TabView, activeID int, width int, theme render.Theme) {
	for _, t := range tabs {
		if t.ID() == activeID {
			continue
		}
		indices := t.DrainDirtyIndices(maxTasksPerTabPerFrame)
		msgs := t.Messages()
		for _, idx := range indices {
			if idx < 0 || idx >= len(msgs) {
				continue
			}
			p.Enqueue(Task{TabID: t.ID(), Index: idx, Message: msgs[idx], Width: width, Theme: theme})
		}
	}
}
