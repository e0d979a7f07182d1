package feed

import "sync"

// Window is the contiguous slice of the full ordered message list currently
// mounted: [Start, Start+Count) out of Total messages. The end bound always
// equals Total, so appends at the tail are visible without a re-fetch.
type Window struct {
	Start int
	Count int
	Total int
}

// Feed owns the ordered message list, the resident block cache, and the
// visible window. The window starts at the most recent displayCount messages
// and grows backwards in loadIncrement steps.
type Feed struct {
	mu sync.Mutex

	messages []*Message
	byID     map[string]*Message
	blocks   map[string]*Block

	windowSize    int
	loadIncrement int
	expanding     bool
}

// New creates a feed showing at most displayCount messages initially, growing
// by loadIncrement per load-more request.
func New(displayCount, loadIncrement int) *Feed {
	if displayCount <= 0 {
		displayCount = 20
	}
	if loadIncrement <= 0 {
		loadIncrement = displayCount
	}
	return &Feed{
		byID:          make(map[string]*Message),
		blocks:        make(map[string]*Block),
		windowSize:    displayCount,
		loadIncrement: loadIncrement,
	}
}

// Append adds a message at the tail. Messages arrive in creation order;
// the feed never re-sorts them.
func (f *Feed) Append(m *Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.Seq = len(f.messages)
	f.messages = append(f.messages, m)
	f.byID[m.ID] = m
}

// Remove deletes a message by identity along with its resident blocks.
// Returns false if the ID is unknown (already deleted).
func (f *Feed) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.byID[id]
	if !ok {
		return false
	}
	delete(f.byID, id)
	for _, bid := range m.BlockIDs {
		delete(f.blocks, bid)
	}
	// Resolve the position by identity, not by stored Seq, so stale
	// sequence numbers after earlier deletions cannot misfire.
	for i, cur := range f.messages {
		if cur.ID == id {
			f.messages = append(f.messages[:i:i], f.messages[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a message by ID.
func (f *Feed) Get(id string) (*Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	return m, ok
}

// Len returns the total number of messages.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// Window returns the current visible window.
func (f *Feed) Window() Window {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windowLocked()
}

func (f *Feed) windowLocked() Window {
	total := len(f.messages)
	start := total - f.windowSize
	if start < 0 {
		start = 0
	}
	return Window{Start: start, Count: total - start, Total: total}
}

// Visible returns the messages inside the window, oldest first.
func (f *Feed) Visible() []*Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.windowLocked()
	out := make([]*Message, w.Count)
	copy(out, f.messages[w.Start:w.Start+w.Count])
	return out
}

// HasMore reports whether older messages exist above the window. O(1).
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages) > f.windowSize
}

// LoadMore grows the window backwards by one increment. It returns false when
// there is nothing more to load or an expansion is already in flight, so
// duplicate triggers from scroll handlers collapse into a single expansion.
// Call FinishLoad once the newly exposed messages are hydrated.
func (f *Feed) LoadMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.expanding || len(f.messages) <= f.windowSize {
		return false
	}
	f.expanding = true
	f.windowSize += f.loadIncrement
	return true
}

// FinishLoad re-arms load-more after an expansion completes.
func (f *Feed) FinishLoad() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expanding = false
}

// PutBlock makes a block resident.
func (f *Feed) PutBlock(b *Block) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks[b.ID] = b
}

// Block returns a resident block by ID. A miss means the caller should
// hydrate from the store on the next render pass.
func (f *Feed) Block(id string) (*Block, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[id]
	return b, ok
}

// SetBlockContent replaces the display content of a resident block with a
// committed snapshot. Snapshots only ever extend previous ones, so this is
// append-only from the reader's point of view. Writes to terminal blocks are
// ignored.
func (f *Feed) SetBlockContent(id, content string, status Status) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[id]
	if !ok || b.Status.Terminal() {
		return false
	}
	b.Content = content
	b.Status = status
	return true
}

// SetMessageStatus transitions a message's lifecycle status.
func (f *Feed) SetMessageStatus(id string, status Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.byID[id]; ok {
		m.Status = status
	}
}
