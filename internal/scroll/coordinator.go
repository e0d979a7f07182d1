// Package scroll owns the scrollable viewport. Every other component files a
// scroll request with a named source; the coordinator arbitrates, coalesces
// requests inside a debounce window, honors the user's auto-scroll setting,
// and persists the offset per container. Nothing else in the program calls a
// viewport scroll primitive.
package scroll

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Request sources recognized by the coordinator. Sources are labels for
// debugging and tests; any string works.
const (
	SourceStreamingCheck      = "streamingCheck"
	SourceTextDelta           = "textDelta"
	SourceMessageLengthChange = "messageLengthChange"
	SourceForceScroll         = "forceScroll"
)

// PositionStore persists the viewport offset per named container.
type PositionStore interface {
	ScrollOffset(ctx context.Context, key string) (offset int, ok bool, err error)
	SetScrollOffset(ctx context.Context, key string, offset int) error
}

// Coordinator is the sole owner of the viewport's scroll position.
type Coordinator struct {
	mu sync.Mutex
	vp viewport.Model

	key        string
	autoScroll bool

	userScrolledUp bool
	pending        map[string]struct{}
	forcePending   bool
	deadline       time.Time
	debounce       time.Duration

	store     PositionStore
	saveDelay time.Duration
	saveTimer *time.Timer
	restored  bool
	tornDown  bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce sets the request coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

// WithSaveDelay sets the offset persistence debounce.
func WithSaveDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.saveDelay = d }
}

// New creates a coordinator for a viewport of the given size. key names the
// container for offset persistence; store may be nil to disable persistence.
func New(width, height int, key string, autoScroll bool, store PositionStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		vp:         viewport.New(width, height),
		key:        key,
		autoScroll: autoScroll,
		pending:    make(map[string]struct{}),
		debounce:   50 * time.Millisecond,
		store:      store,
		saveDelay:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSize resizes the viewport.
func (c *Coordinator) SetSize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp.Width = width
	c.vp.Height = height
}

// SetContent replaces the viewport content, preserving bottom anchoring when
// the user was at the bottom and auto-scroll is allowed.
func (c *Coordinator) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return
	}
	wasAtBottom := c.vp.AtBottom()
	c.vp.SetContent(content)
	if wasAtBottom && c.autoScroll && !c.userScrolledUp {
		c.vp.GotoBottom()
	}
}

// Request files a scroll-to-bottom intention from a named source. Requests
// inside the debounce window collapse into a single scroll executed by the
// next Apply. A forced request bypasses the auto-scroll setting and any user
// scroll-up suppression.
func (c *Coordinator) Request(source string, force bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return // target is gone; swallowed as a no-op
	}
	if force {
		c.forcePending = true
		return
	}
	if len(c.pending) == 0 {
		c.deadline = time.Now().Add(c.debounce)
	}
	c.pending[source] = struct{}{}
}

// Apply executes at most one coalesced scroll operation. The TUI calls it
// once per render pass; this is the terminal analog of deferring scroll work
// to the next animation frame. Returns true if the viewport moved.
func (c *Coordinator) Apply(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tornDown {
		return false
	}

	if c.forcePending {
		c.forcePending = false
		c.pending = make(map[string]struct{})
		c.userScrolledUp = false
		c.vp.GotoBottom()
		c.scheduleSaveLocked()
		return true
	}

	if len(c.pending) == 0 {
		return false
	}

	// Auto-scroll executes only at the bottom with the user's consent.
	if !c.autoScroll || c.userScrolledUp {
		c.pending = make(map[string]struct{})
		return false
	}

	if now.Before(c.deadline) {
		return false // still coalescing
	}

	c.pending = make(map[string]struct{})
	c.vp.GotoBottom()
	c.scheduleSaveLocked()
	return true
}

// Update routes input events (keys, mouse wheel) to the viewport and records
// whether the user has scrolled away from the bottom. Auto-scroll stays
// suppressed until they return to the bottom or a forced scroll intervenes.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return nil
	}
	var cmd tea.Cmd
	c.vp, cmd = c.vp.Update(msg)
	c.userScrolledUp = !c.vp.AtBottom()
	c.scheduleSaveLocked()
	return cmd
}

// ScrollBy moves the viewport by n lines (negative is up) on the user's
// behalf and updates suppression state.
func (c *Coordinator) ScrollBy(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return
	}
	if n < 0 {
		c.vp.LineUp(-n)
	} else if n > 0 {
		c.vp.LineDown(n)
	}
	c.userScrolledUp = !c.vp.AtBottom()
	c.scheduleSaveLocked()
}

// GotoTop jumps to the oldest visible content (user action).
func (c *Coordinator) GotoTop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return
	}
	c.vp.GotoTop()
	c.userScrolledUp = !c.vp.AtBottom()
	c.scheduleSaveLocked()
}

// AtBottom reports whether the viewport rests at the bottom.
func (c *Coordinator) AtBottom() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vp.AtBottom()
}

// AtTop reports whether the viewport rests at the top.
func (c *Coordinator) AtTop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vp.AtTop()
}

// UserScrolledUp reports whether auto-scroll is currently suppressed by a
// user scroll.
func (c *Coordinator) UserScrolledUp() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userScrolledUp
}

// PendingSources lists the sources with a request in flight.
func (c *Coordinator) PendingSources() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.pending))
	for s := range c.pending {
		out = append(out, s)
	}
	return out
}

// YOffset returns the current scroll offset.
func (c *Coordinator) YOffset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vp.YOffset
}

// View renders the viewport.
func (c *Coordinator) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vp.View()
}

// RestoreOnce restores the persisted offset for this container. Only the
// first call reads the store; remounts within a session keep live state.
func (c *Coordinator) RestoreOnce(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.restored || c.store == nil || c.tornDown {
		return nil
	}
	c.restored = true
	offset, ok, err := c.store.ScrollOffset(ctx, c.key)
	if err != nil || !ok {
		return err
	}
	c.vp.SetYOffset(offset)
	c.userScrolledUp = !c.vp.AtBottom()
	return nil
}

// scheduleSaveLocked debounces offset persistence so a scroll gesture writes
// once, not per line. Caller holds the lock.
func (c *Coordinator) scheduleSaveLocked() {
	if c.store == nil || c.tornDown {
		return
	}
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.saveTimer = time.AfterFunc(c.saveDelay, c.persist)
}

func (c *Coordinator) persist() {
	c.mu.Lock()
	if c.store == nil || c.tornDown {
		c.mu.Unlock()
		return
	}
	offset := c.vp.YOffset
	store, key := c.store, c.key
	c.mu.Unlock()

	_ = store.SetScrollOffset(context.Background(), key, offset)
}

// Teardown cancels pending scroll work and flushes the offset write. All
// later requests become no-ops.
func (c *Coordinator) Teardown() {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return
	}
	c.tornDown = true
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
	c.pending = make(map[string]struct{})
	c.forcePending = false
	offset := c.vp.YOffset
	store, key := c.store, c.key
	c.mu.Unlock()

	if store != nil {
		_ = store.SetScrollOffset(context.Background(), key, offset)
	}
}
