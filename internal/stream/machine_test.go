package stream

import (
	"testing"

	"github.com/deepchat/deepchat/internal/chatmodel"
)

func TestApplyDropsEventsFromSupersededRequest(t *testing.T) {
	app := chatmodel.NewApp("", "", "")
	m := New(app)
	handle := m.Start()
	staleID := handle.ID

	// A new request starts (e.g. user retried), superseding the old id.
	m.Start()

	dirty := m.Apply(Event{RequestID: staleID, Kind: Chunk, Text: "late"})
	if dirty {
		t.Fatalf("stale event should not have been applied")
	}
	if app.StreamBuffer != "" {
		t.Fatalf("stream buffer should be untouched by stale event, got %q", app.StreamBuffer)
	}
}

func TestApplyAcceptsCurrentRequest(t *testing.T) {
	app := chatmodel.NewApp("", "", "")
	m := New(app)
	handle := m.Start()

	dirty := m.Apply(Event{RequestID: handle.ID, Kind: Chunk, Text: "hi"})
	if !dirty {
		t.Fatalf("expected dirty=true")
	}
	if app.StreamBuffer != "hi" {
		t.Fatalf("stream buffer = %q, want hi", app.StreamBuffer)
	}
}

func TestStopSetsCancelFlag(t *testing.T) {
	app := chatmodel.NewApp("", "", "")
	m := New(app)
	handle := m.Start()
	if handle.Stopped() {
		t.Fatalf("handle should not start stopped")
	}
	m.Stop()
	if !handle.Stopped() {
		t.Fatalf("expected handle to be stopped after Stop()")
	}
}

func TestDoneClearsBusyAndActiveRequest(t *testing.T) {
	app := chatmodel.NewApp("", "", "")
	m := New(app)
	handle := m.Start()
	m.Apply(Event{RequestID: handle.ID, Kind: Done})
	if app.Busy {
		t.Fatalf("expected busy=false after Done")
	}
	if app.ActiveRequest != nil {
		t.Fatalf("expected ActiveRequest=nil after Done")
	}
}
