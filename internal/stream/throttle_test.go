package stream

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// commitRecorder collects commits from a throttler.
type commitRecorder struct {
	mu    sync.Mutex
	snaps []string
	final []bool
}

func (r *commitRecorder) commit(snapshot string, final bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snapshot)
	r.final = append(r.final, final)
}

func (r *commitRecorder) last() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return "", false
	}
	return r.snaps[len(r.snaps)-1], r.final[len(r.final)-1]
}

func (r *commitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *commitRecorder) finalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.final {
		if f {
			n++
		}
	}
	return n
}

func TestThrottler_LosslessUnderJitter(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(100*time.Millisecond, rec.commit)

	// Deltas arrive well inside the throttle window; intermediate commits may
	// or may not happen, but the flushed snapshot is always the full
	// concatenation.
	deltas := []string{"Hel", "lo wor", "ld!"}
	for _, d := range deltas {
		th.Append(d)
		time.Sleep(50 * time.Millisecond)
	}
	th.Flush()

	got, final := rec.last()
	if got != "Hello world!" {
		t.Errorf("expected %q after completion flush, got %q", "Hello world!", got)
	}
	if !final {
		t.Error("last commit should be the final flush")
	}
}

func TestThrottler_LeadingEdgeCommit(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(time.Hour, rec.commit)

	th.Append("first")
	if snap, _ := rec.last(); snap != "first" {
		t.Errorf("expected immediate leading-edge commit, got %q", snap)
	}

	// Inside the window: accumulated but not committed.
	th.Append(" second")
	if rec.count() != 1 {
		t.Errorf("expected commit to be withheld inside the window, got %d commits", rec.count())
	}
	if th.Content() != "first second" {
		t.Errorf("accumulation dropped a delta: %q", th.Content())
	}
}

func TestThrottler_FlushWithinWindow(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(time.Hour, rec.commit)

	th.Append("a")
	th.Append("b")
	th.Flush() // must commit even though the window is wide open

	got, final := rec.last()
	if got != "ab" || !final {
		t.Errorf("expected final %q, got %q (final=%v)", "ab", got, final)
	}
	if rec.finalCount() != 1 {
		t.Errorf("expected exactly one final commit, got %d", rec.finalCount())
	}

	th.Flush() // repeated flush settles silently
	if rec.finalCount() != 1 {
		t.Errorf("repeated flush produced extra final commits: %d", rec.finalCount())
	}
}

func TestThrottler_TrailingEdgeCommit(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(20*time.Millisecond, rec.commit)

	th.Append("a")
	th.Append("b") // withheld, trailing timer armed
	time.Sleep(80 * time.Millisecond)

	if snap, _ := rec.last(); snap != "ab" {
		t.Errorf("trailing-edge commit missing: last snapshot %q", snap)
	}
}

func TestThrottler_ManyDeltasBoundedCommits(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(50*time.Millisecond, rec.commit)

	var want strings.Builder
	for i := 0; i < 200; i++ {
		th.Append("x")
		want.WriteString("x")
	}
	th.Flush()

	if got, _ := rec.last(); got != want.String() {
		t.Errorf("lost deltas: got %d chars, want %d", len(got), want.Len())
	}
	// 200 appends inside one window: leading commit, maybe one trailing, plus
	// the flush. Anything near 200 means throttling is broken.
	if rec.count() > 5 {
		t.Errorf("throttling ineffective: %d commits for 200 deltas", rec.count())
	}
}

func TestThrottler_SyncPrefixExtension(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(time.Hour, rec.commit)

	th.Sync("Hello")
	th.Sync("Hello world")
	th.Flush()

	if got, _ := rec.last(); got != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got)
	}
}

func TestThrottler_SyncDiscontinuityResets(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(time.Hour, rec.commit)

	th.Sync("Hello world")
	// Restarted stream: new content is not a prefix extension.
	th.Sync("Hi")
	th.Flush()

	if got, _ := rec.last(); got != "Hi" {
		t.Errorf("expected accumulator reset to %q, got %q", "Hi", got)
	}
}

func TestThrottler_StopCancelsPendingCommits(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(20*time.Millisecond, rec.commit)

	th.Append("a")
	th.Append("b") // trailing timer armed
	th.Stop()

	before := rec.count()
	time.Sleep(60 * time.Millisecond)
	if rec.count() != before {
		t.Error("commit fired after Stop")
	}

	th.Append("c")
	th.Flush()
	if rec.count() != before {
		t.Error("throttler accepted writes after Stop")
	}
	if th.Content() != "ab" {
		t.Errorf("accumulated content not preserved after Stop: %q", th.Content())
	}
}

func TestThrottler_AppendAfterFlushRestarts(t *testing.T) {
	rec := &commitRecorder{}
	th := NewThrottler(time.Hour, rec.commit)

	th.Append("old stream")
	th.Flush()
	th.Append("new")

	if got, _ := rec.last(); got != "new" {
		t.Errorf("expected restarted accumulator %q, got %q", "new", got)
	}
}
