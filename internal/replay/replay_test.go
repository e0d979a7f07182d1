package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/zhake2025/streamchat/internal/bus"
)

type eventLog struct {
	mu     sync.Mutex
	events []bus.Event
	text   strings.Builder
}

func (l *eventLog) attach(b *bus.Bus) {
	record := func(ev bus.Event) bus.Handler {
		return func(p bus.Payload) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.events = append(l.events, ev)
			if ev == bus.TextDelta {
				l.text.WriteString(p.Delta)
			}
		}
	}
	b.On(bus.TextDelta, record(bus.TextDelta))
	b.On(bus.ThinkingDelta, record(bus.ThinkingDelta))
	b.On(bus.TextComplete, record(bus.TextComplete))
	b.On(bus.StreamError, record(bus.StreamError))
	b.On(bus.ForceScrollToBottom, record(bus.ForceScrollToBottom))
}

func (l *eventLog) last() bus.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

func (l *eventLog) fullText() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text.String()
}

func fastTurn(t Turn) Turn {
	t.DelayMs = 1
	return t
}

func TestStreamTurnDeliversLosslessText(t *testing.T) {
	b := bus.New()
	log := &eventLog{}
	log.attach(b)

	p := NewProducer(b, Builtin())
	turn := fastTurn(Turn{Response: "Hello world! This text crosses 多字节 rune boundaries."})

	if err := p.StreamTurn(context.Background(), "m1", turn); err != nil {
		t.Fatal(err)
	}
	if got := log.fullText(); got != turn.Response {
		t.Errorf("reassembled %q, want %q", got, turn.Response)
	}
	if log.last() != bus.TextComplete {
		t.Errorf("stream did not end with completion, last=%s", log.last())
	}
}

func TestStreamTurnEmitsThinkingBeforeText(t *testing.T) {
	b := bus.New()
	log := &eventLog{}
	log.attach(b)

	p := NewProducer(b, Builtin())
	turn := fastTurn(Turn{Thinking: "hmm", Response: "answer"})
	if err := p.StreamTurn(context.Background(), "m1", turn); err != nil {
		t.Fatal(err)
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	sawThinking := false
	for _, ev := range log.events {
		if ev == bus.ThinkingDelta {
			sawThinking = true
		}
		if ev == bus.TextDelta && !sawThinking {
			t.Fatal("text delta arrived before thinking finished")
		}
	}
	if !sawThinking {
		t.Fatal("no thinking deltas emitted")
	}
}

func TestStreamTurnOpensWithForcedScroll(t *testing.T) {
	b := bus.New()
	log := &eventLog{}
	log.attach(b)

	p := NewProducer(b, Builtin())
	if err := p.StreamTurn(context.Background(), "m1", fastTurn(Turn{Response: "hi"})); err != nil {
		t.Fatal(err)
	}

	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.events) == 0 || log.events[0] != bus.ForceScrollToBottom {
		t.Fatalf("turn must open with a forced scroll, events=%v", log.events)
	}
}

func TestStreamTurnFailsMidStream(t *testing.T) {
	b := bus.New()
	log := &eventLog{}
	log.attach(b)

	p := NewProducer(b, Builtin())
	turn := fastTurn(Turn{Response: "0123456789", Error: "connection reset", FailAfter: 4})

	err := p.StreamTurn(context.Background(), "m1", turn)
	if err == nil || err.Error() != "connection reset" {
		t.Fatalf("expected transcript error, got %v", err)
	}
	if log.last() != bus.StreamError {
		t.Errorf("stream did not end with an error event, last=%s", log.last())
	}
	if got := log.fullText(); len(got) > 4 {
		t.Errorf("emitted %d bytes past the failure point", len(got))
	}
}

func TestStreamTurnHonorsCancellation(t *testing.T) {
	b := bus.New()
	log := &eventLog{}
	log.attach(b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProducer(b, Builtin())
	err := p.StreamTurn(ctx, "m1", Turn{Response: "never delivered", DelayMs: 1})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if log.fullText() != "" {
		t.Error("deltas emitted after cancellation")
	}
}

func TestNextTurnCycles(t *testing.T) {
	tr := &Transcript{Turns: []Turn{{Response: "a"}, {Response: "b"}}}
	p := NewProducer(bus.New(), tr)

	got := []string{p.NextTurn().Response, p.NextTurn().Response, p.NextTurn().Response}
	want := []string{"a", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("turn %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.yaml")
	content := `title: test
turns:
  - prompt: hi
    thinking: considering
    response: hello there
    chunk_size: 3
    delay_ms: 1
  - response: second turn
    error: boom
    fail_after: 2
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	tr, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Title != "test" || len(tr.Turns) != 2 {
		t.Fatalf("unexpected transcript: %+v", tr)
	}
	if tr.Turns[0].ChunkSize != 3 || tr.Turns[0].Thinking != "considering" {
		t.Errorf("first turn misparsed: %+v", tr.Turns[0])
	}
	if tr.Turns[1].Error != "boom" || tr.Turns[1].FailAfter != 2 {
		t.Errorf("second turn misparsed: %+v", tr.Turns[1])
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsEmptyTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	os.WriteFile(path, []byte("title: nothing\n"), 0600)
	if _, err := Load(path); err == nil {
		t.Error("expected error for transcript with no turns")
	}
}
