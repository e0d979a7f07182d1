package stream

import (
	"sync"
	"time"

	"github.com/zhake2025/streamchat/internal/bus"
	"github.com/zhake2025/streamchat/internal/feed"
)

// State is the lifecycle of one message's stream.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateFinalizing
	StateComplete
	StateError
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateComplete:
		return "complete"
	case StateError:
		return "error"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Update is a committed snapshot or lifecycle transition delivered to the
// renderer. Final marks the completion flush of a block.
type Update struct {
	MessageID string
	BlockID   string
	Snapshot  string
	Final     bool
	State     State
	Err       error
}

// NotifyFunc receives controller updates. It is called from bus handlers and
// throttle timers; implementations forward into the UI loop (program.Send).
type NotifyFunc func(Update)

// Controller consumes bus events for a single message, throttles each block's
// deltas, and walks the stream state machine:
//
//	idle -> streaming -> finalizing -> complete
//
// with error reachable from streaming/finalizing. Entering error halts all
// further delta application for the message.
type Controller struct {
	mu         sync.Mutex
	messageID  string
	interval   time.Duration
	notify     NotifyFunc
	state      State
	throttlers map[string]*Throttler
	settled    map[string]bool
	active     string // block currently receiving deltas
	pending    int    // blocks started but not yet completed upstream
	unsubs     []func()
}

// NewController creates a controller for messageID. Call Attach to subscribe
// it to the bus.
func NewController(messageID string, interval time.Duration, notify NotifyFunc) *Controller {
	return &Controller{
		messageID:  messageID,
		interval:   interval,
		notify:     notify,
		state:      StateIdle,
		throttlers: make(map[string]*Throttler),
		settled:    make(map[string]bool),
	}
}

// Attach subscribes the controller to the stream channels, filtered to its
// message. Detach (or Cancel) removes the subscriptions.
func (c *Controller) Attach(b *bus.Bus) {
	c.unsubs = append(c.unsubs,
		b.On(bus.TextDelta, c.onDelta),
		b.On(bus.ThinkingDelta, c.onDelta),
		b.On(bus.TextComplete, c.onComplete),
		b.On(bus.StreamError, c.onError),
	)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Content returns the full accumulated content of a block, whether or not it
// has been committed yet.
func (c *Controller) Content(blockID string) string {
	c.mu.Lock()
	t := c.throttlers[blockID]
	c.mu.Unlock()
	if t == nil {
		return ""
	}
	return t.Content()
}

func (c *Controller) onDelta(p bus.Payload) {
	if p.MessageID != c.messageID {
		return
	}

	c.mu.Lock()
	if c.state == StateComplete || c.state == StateError || c.state == StateInterrupted {
		c.mu.Unlock()
		return
	}
	c.state = StateStreaming

	// At most one block receives deltas at a time; a delta for a new block
	// settles the previous one first.
	var settle *Throttler
	if c.active != "" && c.active != p.BlockID {
		settle = c.throttlers[c.active]
	}
	t := c.throttlers[p.BlockID]
	if t == nil {
		blockID := p.BlockID
		t = NewThrottler(c.interval, func(snapshot string, final bool) {
			c.emit(blockID, snapshot, final)
		})
		c.throttlers[blockID] = t
		c.pending++
	}
	c.active = p.BlockID
	c.mu.Unlock()

	// Settling commits the displaced block's content; its TextComplete still
	// arrives later and does the lifecycle bookkeeping.
	if settle != nil {
		settle.Flush()
	}
	t.Append(p.Delta)
}

func (c *Controller) onComplete(p bus.Payload) {
	if p.MessageID != c.messageID {
		return
	}

	c.mu.Lock()
	if c.state == StateComplete || c.state == StateError || c.state == StateInterrupted {
		c.mu.Unlock()
		return
	}
	t := c.throttlers[p.BlockID]
	if t == nil || c.settled[p.BlockID] {
		c.mu.Unlock()
		return
	}
	c.settled[p.BlockID] = true
	c.state = StateFinalizing
	if c.active == p.BlockID {
		c.active = ""
	}
	c.pending--
	done := c.pending == 0
	c.mu.Unlock()

	t.Flush()

	if done {
		c.mu.Lock()
		if c.state == StateFinalizing {
			c.state = StateComplete
		}
		st := c.state
		c.mu.Unlock()
		c.notify(Update{MessageID: c.messageID, State: st})
	}
}

func (c *Controller) onError(p bus.Payload) {
	if p.MessageID != c.messageID {
		return
	}

	c.mu.Lock()
	if c.state == StateComplete || c.state == StateError || c.state == StateInterrupted {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	for _, t := range c.throttlers {
		t.Stop()
	}
	c.mu.Unlock()

	c.notify(Update{MessageID: c.messageID, BlockID: p.BlockID, State: StateError, Err: p.Err})
}

func (c *Controller) emit(blockID, snapshot string, final bool) {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	if st == StateError || st == StateInterrupted {
		return
	}
	c.notify(Update{
		MessageID: c.messageID,
		BlockID:   blockID,
		Snapshot:  snapshot,
		Final:     final,
		State:     st,
	})
}

// Detach removes the bus subscriptions without touching stream state.
func (c *Controller) Detach() {
	for _, u := range c.unsubs {
		u()
	}
	c.unsubs = nil
}

// Cancel aborts the stream: subscriptions are removed, throttle timers are
// cancelled, and accumulated content is preserved. The message ends in the
// interrupted state unless it already reached a terminal one.
func (c *Controller) Cancel() {
	c.Detach()

	c.mu.Lock()
	for _, t := range c.throttlers {
		t.Stop()
	}
	if c.state == StateComplete || c.state == StateError {
		c.mu.Unlock()
		return
	}
	c.state = StateInterrupted
	c.mu.Unlock()

	c.notify(Update{MessageID: c.messageID, State: StateInterrupted})
}

// BlockStatus maps a controller state to the status a block should carry.
func BlockStatus(s State, final bool) feed.Status {
	switch {
	case s == StateError:
		return feed.StatusError
	case s == StateInterrupted:
		return feed.StatusInterrupted
	case final:
		return feed.StatusComplete
	default:
		return feed.StatusStreaming
	}
}
