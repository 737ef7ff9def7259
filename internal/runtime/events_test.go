package runtime

import (
	"testing"
	"time"

	"github.com/deepchat/deepchat/internal/render/preheat"
	"github.com/deepchat/deepchat/internal/stream"
	"github.com/deepchat/deepchat/internal/widget"
)

func TestWaitForEventsDrainsBurstInOneWakeup(t *testing.T) {
	input := make(chan widget.Event, 4)
	input <- widget.Event{Kind: widget.EventKey, Key: "a"}
	input <- widget.Event{Kind: widget.EventKey, Key: "b"}

	src := Sources{Input: input}
	var batch EventBatch
	outcome := WaitForEvents(src, time.Second, &batch)

	if outcome.Ticked || outcome.Disconnected {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(batch.Input) != 2 {
		t.Fatalf("expected both queued events drained in one wakeup, got %d", len(batch.Input))
	}
}

func TestWaitForEventsTimesOutWhenNothingArrives(t *testing.T) {
	src := Sources{Input: make(chan widget.Event)}
	var batch EventBatch
	outcome := WaitForEvents(src, 10*time.Millisecond, &batch)

	if !outcome.Ticked {
		t.Fatalf("expected a tick outcome on timeout, got %+v", outcome)
	}
	if len(batch.Input) != 0 {
		t.Fatalf("expected empty batch on tick")
	}
}

func TestWaitForEventsReportsDisconnected(t *testing.T) {
	ch := make(chan widget.Event)
	close(ch)
	src := Sources{Input: ch}
	var batch EventBatch
	outcome := WaitForEvents(src, time.Second, &batch)

	if !outcome.Disconnected {
		t.Fatalf("expected disconnected outcome for a closed channel")
	}
}

func TestInputBatchDirty(t *testing.T) {
	if InputBatchDirty(nil) {
		t.Fatalf("empty batch should not be dirty")
	}
	if !InputBatchDirty([]widget.Event{{Kind: widget.EventKey}}) {
		t.Fatalf("non-empty batch should be dirty")
	}
}

func TestPreheatTouchesActiveTab(t *testing.T) {
	results := []preheat.Result{{TabID: 2}, {TabID: 5}}
	if !PreheatTouchesActiveTab(results, 5) {
		t.Fatalf("expected a match for active tab 5")
	}
	if PreheatTouchesActiveTab(results, 9) {
		t.Fatalf("expected no match for active tab 9")
	}
}

func TestTaggedStreamEventCarriesTabID(t *testing.T) {
	ev := TaggedStreamEvent{TabID: 3, Event: stream.Event{Kind: stream.Chunk, Text: "hi"}}
	if ev.TabID != 3 || ev.Event.Text != "hi" {
		t.Fatalf("unexpected tagged event: %+v", ev)
	}
}
