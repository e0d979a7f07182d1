// Package bus provides the stream event bus: a synchronous publish/subscribe
// hub that fans out stream lifecycle events (text deltas, completions,
// thinking deltas, scroll requests) to any number of subscribers. It decouples
// the upstream stream producer from the renderers consuming its output.
//
// Events are never buffered or replayed; a subscriber added after an emission
// misses that event.
package bus

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Event names a bus channel.
type Event string

const (
	TextDelta           Event = "text_delta"
	TextComplete        Event = "text_complete"
	ThinkingDelta       Event = "thinking_delta"
	StreamError         Event = "stream_error"
	ForceScrollToBottom Event = "force_scroll_to_bottom"
)

// Payload carries the facts of a single stream event. Payloads are immutable
// after emission; handlers must not retain and mutate them.
type Payload struct {
	MessageID string
	BlockID   string
	Delta     string
	Err       error
	Timestamp time.Time
}

// Handler receives event payloads. Handlers run synchronously on the
// emitter's goroutine, in subscription order.
type Handler func(Payload)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is the event hub. One instance is created at application start and
// injected into the components that need it; there is no package-level bus.
type Bus struct {
	mu    sync.Mutex
	next  uint64
	subs  map[Event][]subscription
	warnf func(format string, args ...any)
}

// Option configures a Bus.
type Option func(*Bus)

// WithWarnf routes handler failure warnings to a custom sink.
func WithWarnf(warnf func(format string, args ...any)) Option {
	return func(b *Bus) { b.warnf = warnf }
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subs: make(map[Event][]subscription),
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On subscribes handler to ev and returns an unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus) On(ev Event, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	b.subs[ev] = append(b.subs[ev], subscription{id: id, handler: h})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subs[ev]
			for i, s := range subs {
				if s.id == id {
					b.subs[ev] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Emit synchronously delivers p to every current subscriber of ev, in
// subscription order. A panicking handler is recovered and logged; the
// remaining handlers still run and the emitter never sees the failure.
func (b *Bus) Emit(ev Event, p Payload) {
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}

	b.mu.Lock()
	subs := make([]subscription, len(b.subs[ev]))
	copy(subs, b.subs[ev])
	b.mu.Unlock()

	for _, s := range subs {
		b.dispatch(ev, s, p)
	}
}

func (b *Bus) dispatch(ev Event, s subscription, p Payload) {
	defer func() {
		if r := recover(); r != nil {
			b.warnf("bus: handler for %s panicked: %v", ev, r)
		}
	}()
	s.handler(p)
}

// SubscriberCount reports the number of handlers currently subscribed to ev.
func (b *Bus) SubscriberCount(ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[ev])
}
