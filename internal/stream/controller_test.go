package stream

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zhake2025/streamchat/internal/bus"
	"github.com/zhake2025/streamchat/internal/feed"
)

type updateRecorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *updateRecorder) notify(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *updateRecorder) all() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Update, len(r.updates))
	copy(out, r.updates)
	return out
}

func (r *updateRecorder) lastSnapshotFor(blockID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, final := "", false
	for _, u := range r.updates {
		if u.BlockID == blockID && (u.Snapshot != "" || u.Final) {
			snap, final = u.Snapshot, u.Final
		}
	}
	return snap, final
}

func TestController_LosslessEndToEnd(t *testing.T) {
	b := bus.New()
	rec := &updateRecorder{}
	c := NewController("m1", 100*time.Millisecond, rec.notify)
	c.Attach(b)
	defer c.Detach()

	for _, d := range []string{"Hel", "lo wor", "ld!"} {
		b.Emit(bus.TextDelta, bus.Payload{MessageID: "m1", BlockID: "b1", Delta: d})
		time.Sleep(50 * time.Millisecond)
	}
	b.Emit(bus.TextComplete, bus.Payload{MessageID: "m1", BlockID: "b1"})

	snap, final := rec.lastSnapshotFor("b1")
	if snap != "Hello world!" || !final {
		t.Errorf("expected final %q, got %q (final=%v)", "Hello world!", snap, final)
	}
	if c.State() != StateComplete {
		t.Errorf("expected complete state, got %s", c.State())
	}
}

func TestController_IgnoresOtherMessages(t *testing.T) {
	b := bus.New()
	rec := &updateRecorder{}
	c := NewController("m1", time.Hour, rec.notify)
	c.Attach(b)
	defer c.Detach()

	b.Emit(bus.TextDelta, bus.Payload{MessageID: "other", BlockID: "b1", Delta: "x"})

	if len(rec.all()) != 0 {
		t.Errorf("controller reacted to another message's deltas: %d updates", len(rec.all()))
	}
	if c.State() != StateIdle {
		t.Errorf("expected idle, got %s", c.State())
	}
}

func TestController_ThinkingThenTextBlocks(t *testing.T) {
	b := bus.New()
	rec := &updateRecorder{}
	c := NewController("m1", time.Hour, rec.notify)
	c.Attach(b)
	defer c.Detach()

	b.Emit(bus.ThinkingDelta, bus.Payload{MessageID: "m1", BlockID: "think", Delta: "pondering"})
	// First text delta displaces the thinking block; its content is settled.
	b.Emit(bus.TextDelta, bus.Payload{MessageID: "m1", BlockID: "text", Delta: "Answer"})

	snap, final := rec.lastSnapshotFor("think")
	if snap != "pondering" || !final {
		t.Errorf("displaced thinking block not settled: %q (final=%v)", snap, final)
	}

	b.Emit(bus.TextComplete, bus.Payload{MessageID: "m1", BlockID: "think"})
	b.Emit(bus.TextComplete, bus.Payload{MessageID: "m1", BlockID: "text"})

	if c.State() != StateComplete {
		t.Errorf("expected complete after both blocks finished, got %s", c.State())
	}
}

func TestController_ErrorHaltsDeltas(t *testing.T) {
	b := bus.New()
	rec := &updateRecorder{}
	c := NewController("m1", time.Hour, rec.notify)
	c.Attach(b)
	defer c.Detach()

	b.Emit(bus.TextDelta, bus.Payload{MessageID: "m1", BlockID: "b1", Delta: "partial"})
	upstreamErr := errors.New("connection reset")
	b.Emit(bus.StreamError, bus.Payload{MessageID: "m1", BlockID: "b1", Err: upstreamErr})

	if c.State() != StateError {
		t.Fatalf("expected error state, got %s", c.State())
	}

	before := len(rec.all())
	b.Emit(bus.TextDelta, bus.Payload{MessageID: "m1", BlockID: "b1", Delta: "late"})
	if len(rec.all()) != before {
		t.Error("delta applied after error")
	}
	// Partially accumulated content is preserved, not discarded.
	if c.Content("b1") != "partial" {
		t.Errorf("partial content lost: %q", c.Content("b1"))
	}

	var sawErr bool
	for _, u := range rec.all() {
		if u.State == StateError && errors.Is(u.Err, upstreamErr) {
			sawErr = true
		}
	}
	if !sawErr {
		t.Error("error update not delivered")
	}
}

func TestController_CancelPreservesContent(t *testing.T) {
	b := bus.New()
	rec := &updateRecorder{}
	c := NewController("m1", time.Hour, rec.notify)
	c.Attach(b)

	b.Emit(bus.TextDelta, bus.Payload{MessageID: "m1", BlockID: "b1", Delta: "so far"})
	c.Cancel()

	if c.State() != StateInterrupted {
		t.Errorf("expected interrupted, got %s", c.State())
	}
	if c.Content("b1") != "so far" {
		t.Errorf("content lost on cancel: %q", c.Content("b1"))
	}

	// Subscriptions are gone; the bus no longer reaches the controller.
	if n := b.SubscriberCount(bus.TextDelta); n != 0 {
		t.Errorf("expected 0 subscribers after cancel, got %d", n)
	}
}

func TestBlockStatus(t *testing.T) {
	cases := []struct {
		state State
		final bool
		want  feed.Status
	}{
		{StateStreaming, false, feed.StatusStreaming},
		{StateFinalizing, true, feed.StatusComplete},
		{StateError, false, feed.StatusError},
		{StateInterrupted, false, feed.StatusInterrupted},
	}
	for _, tc := range cases {
		if got := BlockStatus(tc.state, tc.final); got != tc.want {
			t.Errorf("BlockStatus(%s, %v) = %s, want %s", tc.state, tc.final, got, tc.want)
		}
	}
}
