// Package stream turns high-frequency delta events into bounded-rate display
// snapshots. The throttler accumulates every delta losslessly and commits a
// snapshot at most once per interval; the controller owns one throttler per
// block and drives the per-message stream lifecycle.
package stream

import (
	"strings"
	"sync"
	"time"
)

// throttleState is the commit scheduling state.
type throttleState int

const (
	stateIdle      throttleState = iota // no commit scheduled
	stateScheduled                      // trailing-edge commit timer armed
	stateFlushed                        // final flush done, settled
)

// CommitFunc receives committed display snapshots. final is true exactly once
// per stream, for the unconditional completion flush.
type CommitFunc func(snapshot string, final bool)

// Throttler samples a continuously growing content buffer for one block.
// It is the single writer of the accumulation buffer; renderers only ever see
// committed snapshots. Whatever the timing of commits, the snapshot delivered
// by Flush equals the exact concatenation of all appended deltas.
type Throttler struct {
	mu        sync.Mutex
	interval  time.Duration
	commit    CommitFunc
	buf       strings.Builder
	committed string
	dirty     bool
	state     throttleState
	timer     *time.Timer
	stopped   bool
}

// NewThrottler creates a throttler committing at most once per interval.
func NewThrottler(interval time.Duration, commit CommitFunc) *Throttler {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &Throttler{interval: interval, commit: commit}
}

// Append adds a delta to the accumulation buffer. The first delta after an
// idle period commits immediately (leading edge); later deltas ride the
// trailing-edge timer. Appending after a completed stream restarts the
// throttler with an empty buffer.
func (t *Throttler) Append(delta string) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.state == stateFlushed {
		t.resetLocked()
	}
	t.buf.WriteString(delta)
	t.dirty = true
	snap, emit := t.maybeCommitLeadingLocked()
	t.mu.Unlock()

	if emit {
		t.commit(snap, false)
	}
}

// Sync replaces the accumulated content wholesale. When full does not extend
// the last committed snapshot as a prefix (a stream restart), the accumulator
// resets rather than attempting a diff.
func (t *Throttler) Sync(full string) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.state == stateFlushed || !strings.HasPrefix(full, t.committed) {
		t.resetLocked()
	}
	t.buf.Reset()
	t.buf.WriteString(full)
	t.dirty = true
	snap, emit := t.maybeCommitLeadingLocked()
	t.mu.Unlock()

	if emit {
		t.commit(snap, false)
	}
}

// maybeCommitLeadingLocked commits now if no timer is armed and arms the
// trailing-edge timer. Caller holds the lock.
func (t *Throttler) maybeCommitLeadingLocked() (string, bool) {
	if t.state != stateIdle {
		return "", false
	}
	snap := t.buf.String()
	t.committed = snap
	t.dirty = false
	t.state = stateScheduled
	t.timer = time.AfterFunc(t.interval, t.tick)
	return snap, true
}

func (t *Throttler) tick() {
	t.mu.Lock()
	if t.stopped || t.state != stateScheduled {
		t.mu.Unlock()
		return
	}
	if !t.dirty {
		t.state = stateIdle
		t.timer = nil
		t.mu.Unlock()
		return
	}
	snap := t.buf.String()
	t.committed = snap
	t.dirty = false
	t.timer = time.AfterFunc(t.interval, t.tick)
	t.mu.Unlock()

	t.commit(snap, false)
}

// Flush performs the mandatory completion commit: one final, unconditional
// snapshot even inside the throttle window, then settles. Repeated flushes
// are no-ops.
func (t *Throttler) Flush() {
	t.mu.Lock()
	if t.stopped || t.state == stateFlushed {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	snap := t.buf.String()
	t.committed = snap
	t.dirty = false
	t.state = stateFlushed
	t.mu.Unlock()

	t.commit(snap, true)
}

// Stop cancels any pending timer and prevents all further commits. Used when
// the owning view is torn down so no write lands in a disposed renderer.
// Accumulated content stays readable via Content.
func (t *Throttler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Committed returns the last committed snapshot.
func (t *Throttler) Committed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committed
}

// Content returns the full accumulated content, committed or not.
func (t *Throttler) Content() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

func (t *Throttler) resetLocked() {
	t.buf.Reset()
	t.committed = ""
	t.dirty = false
	t.state = stateIdle
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
