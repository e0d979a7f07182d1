package bus

import (
	"testing"
)

func TestEmit_FanOutInSubscriptionOrder(t *testing.T) {
	b := New()

	var order []int
	b.On(TextDelta, func(Payload) { order = append(order, 1) })
	b.On(TextDelta, func(Payload) { order = append(order, 2) })
	b.On(TextDelta, func(Payload) { order = append(order, 3) })

	b.Emit(TextDelta, Payload{Delta: "x"})

	if len(order) != 3 {
		t.Fatalf("expected 3 handlers to run, got %d", len(order))
	}
	for i, v := range order {
		if v != i+1 {
			t.Errorf("handler %d ran out of order: got %d", i, v)
		}
	}
}

func TestEmit_PayloadDelivered(t *testing.T) {
	b := New()

	var got Payload
	b.On(TextDelta, func(p Payload) { got = p })

	b.Emit(TextDelta, Payload{MessageID: "m1", BlockID: "b1", Delta: "hello"})

	if got.MessageID != "m1" || got.BlockID != "b1" || got.Delta != "hello" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be stamped on emit")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	calls := 0
	unsub := b.On(TextComplete, func(Payload) { calls++ })

	b.Emit(TextComplete, Payload{})
	unsub()
	b.Emit(TextComplete, Payload{})
	unsub() // second call is a no-op

	if calls != 1 {
		t.Errorf("expected 1 call after unsubscribe, got %d", calls)
	}
	if n := b.SubscriberCount(TextComplete); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestEmit_PanickingHandlerIsolated(t *testing.T) {
	var warnings []string
	b := New(WithWarnf(func(format string, args ...any) {
		warnings = append(warnings, format)
	}))

	ran := false
	b.On(TextDelta, func(Payload) { panic("boom") })
	b.On(TextDelta, func(Payload) { ran = true })

	b.Emit(TextDelta, Payload{Delta: "x"}) // must not panic the emitter

	if !ran {
		t.Error("handler after panicking handler did not run")
	}
	if len(warnings) != 1 {
		t.Errorf("expected 1 warning, got %d", len(warnings))
	}
}

func TestEmit_NoReplayForLateSubscriber(t *testing.T) {
	b := New()

	b.Emit(TextDelta, Payload{Delta: "early"})

	calls := 0
	b.On(TextDelta, func(Payload) { calls++ })

	if calls != 0 {
		t.Errorf("late subscriber saw %d replayed events", calls)
	}
}

func TestEmit_EventsAreIndependent(t *testing.T) {
	b := New()

	textCalls, thinkCalls := 0, 0
	b.On(TextDelta, func(Payload) { textCalls++ })
	b.On(ThinkingDelta, func(Payload) { thinkCalls++ })

	b.Emit(ThinkingDelta, Payload{Delta: "hmm"})

	if textCalls != 0 || thinkCalls != 1 {
		t.Errorf("cross-channel delivery: text=%d thinking=%d", textCalls, thinkCalls)
	}
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	b := New()

	var unsub2 func()
	calls2 := 0
	b.On(TextDelta, func(Payload) { unsub2() })
	unsub2 = b.On(TextDelta, func(Payload) { calls2++ })

	// Snapshot semantics: the second handler still runs for this emission.
	b.Emit(TextDelta, Payload{})
	if calls2 != 1 {
		t.Errorf("expected handler to run once during the emitting pass, got %d", calls2)
	}

	b.Emit(TextDelta, Payload{})
	if calls2 != 1 {
		t.Errorf("expected no further calls after unsubscribe, got %d", calls2)
	}
}
